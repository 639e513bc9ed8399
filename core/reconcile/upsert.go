package reconcile

import "incidents-api/core/store"

// UpsertContact is insert-if-absent, else update-if-different, keyed by email.
// changed is true for a new contact and for any field that differs.
func UpsertContact(existing *store.Contact, incoming ContactFields) (store.Contact, bool) {
	if existing == nil {
		return store.Contact{
			Email:       incoming.Email,
			FirstName:   incoming.FirstName,
			LastName:    incoming.LastName,
			AccountName: copyRef(incoming.AccountName),
		}, true
	}
	out := *existing
	out.AccountName = copyRef(existing.AccountName)
	changed := false
	if out.FirstName != incoming.FirstName {
		out.FirstName = incoming.FirstName
		changed = true
	}
	if out.LastName != incoming.LastName {
		out.LastName = incoming.LastName
		changed = true
	}
	if !store.SameAccountRef(out.AccountName, incoming.AccountName) {
		out.AccountName = copyRef(incoming.AccountName)
		changed = true
	}
	return out, changed
}

// UpsertContactForIncident reconciles the reporting contact against the resolved
// account and keeps the account's contacts collection in step with the result.
func UpsertContactForIncident(existing *store.Contact, incoming ContactFields, account *store.Account) (store.Contact, bool) {
	if account != nil {
		incoming.AccountName = &account.Name
	}
	contact, dirty := UpsertContact(existing, incoming)
	if account != nil {
		linkContact(account, contact)
	}
	return contact, dirty
}

func linkContact(account *store.Account, contact store.Contact) {
	for i := range account.Contacts {
		if account.Contacts[i].Email == contact.Email {
			account.Contacts[i] = contact
			return
		}
	}
	account.Contacts = append(account.Contacts, contact)
}

func copyRef(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
