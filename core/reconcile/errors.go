package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrMissingRequiredField = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrInvalidFormat        = fmt.Errorf("%w: invalid format", ErrValidation)
	ErrReferenceNotFound    = errors.New("referenced entity not found")
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("entity already exists")
)

// Error carries the failing field and a client-facing message. Match the kind with
// errors.Is against the sentinels above.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Kind)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func missingField(field string) error {
	return &Error{Kind: ErrMissingRequiredField, Field: field, Message: field + " is required"}
}

func invalidFormat(field, msg string) error {
	return &Error{Kind: ErrInvalidFormat, Field: field, Message: msg}
}

func referenceNotFound(field, msg string) error {
	return &Error{Kind: ErrReferenceNotFound, Field: field, Message: msg}
}

func IsValidation(err error) bool        { return errors.Is(err, ErrValidation) }
func IsReferenceNotFound(err error) bool { return errors.Is(err, ErrReferenceNotFound) }
func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsDuplicate(err error) bool         { return errors.Is(err, ErrDuplicate) }
