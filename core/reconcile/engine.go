package reconcile

import (
	"context"
	"strings"

	"incidents-api/core/store"
)

// Lookup is the read side the engine needs. A store.Session satisfies it, which
// keeps every read of a request inside that request's transaction.
type Lookup interface {
	GetAccount(ctx context.Context, name string) (*store.Account, error)
	GetContact(ctx context.Context, email string) (*store.Contact, error)
	GetIncident(ctx context.Context, name string) (*store.Incident, error)
}

// Stager receives the mutations a reconciliation produced.
type Stager interface {
	AddAccount(a store.Account)
	UpdateAccount(a store.Account)
	AddContact(c store.Contact)
	UpdateContact(c store.Contact)
}

type Engine struct {
	lookup Lookup
}

func NewEngine(lookup Lookup) *Engine {
	return &Engine{lookup: lookup}
}

// ResolveAccountForContact returns nil for an absent or blank name.
func (e *Engine) ResolveAccountForContact(ctx context.Context, accountName *string) (*store.Account, error) {
	if accountName == nil || strings.TrimSpace(*accountName) == "" {
		return nil, nil
	}
	account, err := e.lookup.GetAccount(ctx, *accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, referenceNotFound("accountName", "Account with name = "+*accountName+" doesn't exist")
	}
	return account, nil
}

func ResolveContactIdentity(email string) (string, error) {
	if email == "" {
		return "", missingField("email")
	}
	if !emailPattern.MatchString(email) {
		return "", invalidFormat("email", "Invalid email format")
	}
	return email, nil
}

// BuildContact turns a contact payload into the record to insert or replace.
func (e *Engine) BuildContact(ctx context.Context, m NewContactModel) (store.Contact, error) {
	if err := ValidatePayload(m); err != nil {
		return store.Contact{}, err
	}
	email, err := ResolveContactIdentity(m.Email)
	if err != nil {
		return store.Contact{}, err
	}
	account, err := e.ResolveAccountForContact(ctx, m.AccountName)
	if err != nil {
		return store.Contact{}, err
	}
	contact := store.Contact{Email: email, FirstName: m.FirstName, LastName: m.LastName}
	if account != nil {
		contact.AccountName = copyRef(&account.Name)
	}
	return contact, nil
}

// AccountChange is the result of reconciling an account payload: the account with
// its contacts collection and the contact re-pointed at it.
type AccountChange struct {
	Account      store.Account
	Contact      store.Contact
	ContactDirty bool
	// Exists is set when an account with this name is already stored.
	Exists bool
}

func (e *Engine) CreateAccountWithContact(ctx context.Context, m NewAccountModel) (*AccountChange, error) {
	if strings.TrimSpace(m.ContactEmail) == "" {
		return nil, missingField("contactEmail")
	}
	if err := ValidatePayload(m); err != nil {
		return nil, err
	}
	contact, err := e.lookup.GetContact(ctx, m.ContactEmail)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, referenceNotFound("contactEmail", "Contact Not Found")
	}
	existing, err := e.lookup.GetAccount(ctx, m.Name)
	if err != nil {
		return nil, err
	}
	change := &AccountChange{Account: store.Account{Name: m.Name, Contacts: []store.Contact{}}}
	if existing != nil {
		change.Exists = true
		change.Account.Contacts = append(change.Account.Contacts, existing.Contacts...)
	}
	if m.IncidentName != nil && strings.TrimSpace(*m.IncidentName) != "" {
		incident, err := e.lookup.GetIncident(ctx, *m.IncidentName)
		if err != nil {
			return nil, err
		}
		if incident == nil {
			return nil, referenceNotFound("incidentName", "Incident with name = "+*m.IncidentName+" doesn't exist")
		}
		change.Account.IncidentName = copyRef(&incident.Name)
	}
	change.Contact, change.ContactDirty = UpsertContact(contact, ContactFields{
		Email:       contact.Email,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		AccountName: &change.Account.Name,
	})
	linkContact(&change.Account, change.Contact)
	return change, nil
}

// Stage writes the account (insert for a new one, full replace otherwise) followed
// by the contact when its account reference moved.
func (c *AccountChange) Stage(s Stager) {
	if c.Exists {
		s.UpdateAccount(c.Account)
	} else {
		s.AddAccount(c.Account)
	}
	if c.ContactDirty {
		s.UpdateContact(c.Contact)
	}
}

// IncidentBinding is the account an incident request binds to, plus the reconciled
// reporting contact.
type IncidentBinding struct {
	Account      store.Account
	Contact      store.Contact
	ContactIsNew bool
	ContactDirty bool
}

func (e *Engine) CreateOrUpdateIncidentAccountBinding(ctx context.Context, body RequestBody) (*IncidentBinding, error) {
	if strings.TrimSpace(body.AccountName) == "" {
		return nil, missingField("accountName")
	}
	account, err := e.lookup.GetAccount(ctx, body.AccountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, referenceNotFound("accountName", "Account not Found")
	}
	if err := ValidatePayload(body); err != nil {
		return nil, err
	}
	email, err := ResolveContactIdentity(body.ContactEmail)
	if err != nil {
		return nil, err
	}
	existing, err := e.lookup.GetContact(ctx, email)
	if err != nil {
		return nil, err
	}
	contact, dirty := UpsertContactForIncident(existing, ContactFields{
		Email:     email,
		FirstName: body.ContactFirstName,
		LastName:  body.ContactLastName,
	}, account)
	return &IncidentBinding{
		Account:      *account,
		Contact:      contact,
		ContactIsNew: existing == nil,
		ContactDirty: dirty,
	}, nil
}

// Stage writes the contact when needed and points the account at incidentName.
// The incident itself must already be staged.
func (b *IncidentBinding) Stage(s Stager, incidentName string) {
	switch {
	case b.ContactIsNew:
		s.AddContact(b.Contact)
	case b.ContactDirty:
		s.UpdateContact(b.Contact)
	}
	b.Account.IncidentName = copyRef(&incidentName)
	s.UpdateAccount(b.Account)
}

// ContactOutcome names what the reconciliation did to the contact.
func (b *IncidentBinding) ContactOutcome() string {
	switch {
	case b.ContactIsNew:
		return "created"
	case b.ContactDirty:
		return "updated"
	default:
		return "unchanged"
	}
}

// CheckEditIdentity rejects edits whose route identity differs from the body's.
func CheckEditIdentity(pathID, bodyID string) error {
	if pathID == "" || pathID != bodyID {
		return &Error{Kind: ErrNotFound, Message: "not found"}
	}
	return nil
}
