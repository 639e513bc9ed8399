package reconcile

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidatePayload checks struct tags on a request model and reports the first
// failure in the engine's error taxonomy.
func ValidatePayload(payload any) error {
	err := payloadValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidFormat("", err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return missingField(fe.Field())
	case "max":
		return invalidFormat(fe.Field(), fe.Field()+" must be at most "+fe.Param()+" characters")
	case "contactemail":
		return invalidFormat(fe.Field(), "Invalid email format")
	default:
		return invalidFormat(fe.Field(), fe.Field()+" is invalid")
	}
}
