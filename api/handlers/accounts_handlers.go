package handlers

import (
	"context"
	"net/http"
	"strings"

	"incidents-api/core/reconcile"
	"incidents-api/core/store"
)

type AccountsHandler struct {
	base
}

func NewAccountsHandler(d Deps) *AccountsHandler {
	return &AccountsHandler{base: newBase(d)}
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []store.Account
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		var err error
		items, err = sess.Accounts.List(r.Context())
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	var account *store.Account
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if strings.TrimSpace(name) == "" {
			return notFound()
		}
		var err error
		account, err = sess.GetAccount(r.Context(), name)
		if err == nil && account == nil {
			return notFound()
		}
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload reconcile.NewAccountModel
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	var out *store.Account
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		change, err := reconcile.NewEngine(sess).CreateAccountWithContact(r.Context(), payload)
		if err != nil {
			return err
		}
		if change.Exists {
			return duplicate("Account with same name exist")
		}
		out, err = h.apply(r.Context(), sess, change)
		return err
	})
	h.observe("account_create", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	h.logger.Printf("account created: %s", out.Name)
	WriteJSON(w, http.StatusOK, out)
}

func (h *AccountsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	var payload reconcile.NewAccountModel
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	var out *store.Account
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if err := reconcile.CheckEditIdentity(name, payload.Name); err != nil {
			return err
		}
		exists, err := sess.Accounts.Exists(r.Context(), name)
		if err != nil {
			return err
		}
		if !exists {
			return notFound()
		}
		change, err := reconcile.NewEngine(sess).CreateAccountWithContact(r.Context(), payload)
		if err != nil {
			return err
		}
		out, err = h.apply(r.Context(), sess, change)
		return err
	})
	h.observe("account_edit", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		sess.RemoveAccount(name)
		return h.save(r.Context(), sess)
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	h.requestLogger(r).Debugf("account deleted: %s", name)
	w.WriteHeader(http.StatusOK)
}

func (h *AccountsHandler) apply(ctx context.Context, sess *store.Session, change *reconcile.AccountChange) (*store.Account, error) {
	change.Stage(sess)
	if err := h.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess.GetAccount(ctx, change.Account.Name)
}
