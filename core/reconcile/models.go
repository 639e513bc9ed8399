package reconcile

// NewAccountModel is the body of account create and edit requests.
type NewAccountModel struct {
	Name         string  `json:"name" validate:"required,max=100"`
	ContactEmail string  `json:"contactEmail" validate:"required,max=100"`
	IncidentName *string `json:"incidentName" validate:"omitempty,max=100"`
}

// NewContactModel is the body of contact create and edit requests.
type NewContactModel struct {
	Email       string  `json:"email" validate:"required,max=100,contactemail"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	AccountName *string `json:"accountName" validate:"omitempty,max=100"`
}

// RequestBody is the combined incident payload: the account to bind, the reporting
// contact (created or updated by email) and the incident description.
type RequestBody struct {
	AccountName         string `json:"accountName" validate:"required,max=100"`
	ContactFirstName    string `json:"contactFirstName"`
	ContactLastName     string `json:"contactLastName"`
	ContactEmail        string `json:"contactEmail" validate:"required,max=100,contactemail"`
	IncidentDescription string `json:"incidentDescription"`
}

// ContactFields are the mutable contact values an upsert compares.
type ContactFields struct {
	Email       string
	FirstName   string
	LastName    string
	AccountName *string
}
