package handlers

import (
	"net/http"
	"strings"

	"incidents-api/core/reconcile"
	"incidents-api/core/store"
)

type ContactsHandler struct {
	base
}

func NewContactsHandler(d Deps) *ContactsHandler {
	return &ContactsHandler{base: newBase(d)}
}

func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []store.Contact
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		var err error
		items, err = sess.Contacts.List(r.Context())
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *ContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := pathParams(r)["email"]
	var contact *store.Contact
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if strings.TrimSpace(email) == "" {
			return notFound()
		}
		var err error
		contact, err = sess.GetContact(r.Context(), email)
		if err == nil && contact == nil {
			return notFound()
		}
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, contact)
}

func (h *ContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload reconcile.NewContactModel
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	var out *store.Contact
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		contact, err := reconcile.NewEngine(sess).BuildContact(r.Context(), payload)
		if err != nil {
			return err
		}
		exists, err := sess.Contacts.Exists(r.Context(), contact.Email)
		if err != nil {
			return err
		}
		if exists {
			return duplicate("Contact with same email exist")
		}
		sess.AddContact(contact)
		if err := h.save(r.Context(), sess); err != nil {
			return err
		}
		out, err = sess.GetContact(r.Context(), contact.Email)
		return err
	})
	h.observe("contact_create", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	h.logger.Printf("contact created: %s", out.Email)
	WriteJSON(w, http.StatusOK, out)
}

func (h *ContactsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	email := pathParams(r)["email"]
	var payload reconcile.NewContactModel
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	var out *store.Contact
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if err := reconcile.CheckEditIdentity(email, payload.Email); err != nil {
			return err
		}
		existing, err := sess.GetContact(r.Context(), email)
		if err != nil {
			return err
		}
		if existing == nil {
			return notFound()
		}
		contact, err := reconcile.NewEngine(sess).BuildContact(r.Context(), payload)
		if err != nil {
			return err
		}
		if _, changed := reconcile.UpsertContact(existing, reconcile.ContactFields{
			Email:       contact.Email,
			FirstName:   contact.FirstName,
			LastName:    contact.LastName,
			AccountName: contact.AccountName,
		}); changed {
			sess.UpdateContact(contact)
			h.metrics.ObserveContactUpsert("updated")
		} else {
			h.metrics.ObserveContactUpsert("unchanged")
		}
		if err := h.save(r.Context(), sess); err != nil {
			return err
		}
		out, err = sess.GetContact(r.Context(), contact.Email)
		return err
	})
	h.observe("contact_edit", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := pathParams(r)["email"]
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		sess.RemoveContact(email)
		return h.save(r.Context(), sess)
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	h.requestLogger(r).Debugf("contact deleted: %s", email)
	w.WriteHeader(http.StatusOK)
}
