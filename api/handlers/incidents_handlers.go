package handlers

import (
	"net/http"
	"strings"

	"incidents-api/core/reconcile"
	"incidents-api/core/store"
)

// IncidentsHandler serves the combined incident payload. A missing account here is
// a 404, unlike the account and contact endpoints.
type IncidentsHandler struct {
	base
}

func NewIncidentsHandler(d Deps) *IncidentsHandler {
	return &IncidentsHandler{base: newBase(d)}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []store.Incident
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		var err error
		items, err = sess.Incidents.List(r.Context())
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	var incident *store.Incident
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if strings.TrimSpace(name) == "" {
			return notFound()
		}
		var err error
		incident, err = sess.GetIncident(r.Context(), name)
		if err == nil && incident == nil {
			return notFound()
		}
		return err
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload reconcile.RequestBody
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	var out *store.Incident
	var outcome string
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		binding, err := reconcile.NewEngine(sess).CreateOrUpdateIncidentAccountBinding(r.Context(), payload)
		if err != nil {
			return err
		}
		incident := sess.AddIncident(store.Incident{Description: payload.IncidentDescription})
		binding.Stage(sess, incident.Name)
		if err := h.save(r.Context(), sess); err != nil {
			return err
		}
		outcome = binding.ContactOutcome()
		out, err = sess.GetIncident(r.Context(), incident.Name)
		return err
	})
	h.observe("incident_create", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	h.metrics.ObserveContactUpsert(outcome)
	h.logger.Printf("incident created: %s account=%s contact=%s", out.Name, payload.AccountName, outcome)
	WriteJSON(w, http.StatusOK, out)
}

func (h *IncidentsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	var payload reconcile.RequestBody
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	var out *store.Incident
	var outcome string
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		if strings.TrimSpace(name) == "" {
			return notFound()
		}
		existing, err := sess.GetIncident(r.Context(), name)
		if err != nil {
			return err
		}
		if existing == nil {
			return notFound()
		}
		binding, err := reconcile.NewEngine(sess).CreateOrUpdateIncidentAccountBinding(r.Context(), payload)
		if err != nil {
			return err
		}
		if existing.Description != payload.IncidentDescription {
			sess.UpdateIncident(store.Incident{Name: existing.Name, Description: payload.IncidentDescription})
		}
		binding.Stage(sess, existing.Name)
		if err := h.save(r.Context(), sess); err != nil {
			return err
		}
		outcome = binding.ContactOutcome()
		out, err = sess.GetIncident(r.Context(), existing.Name)
		return err
	})
	h.observe("incident_edit", err)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	h.metrics.ObserveContactUpsert(outcome)
	WriteJSON(w, http.StatusOK, out)
}

func (h *IncidentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := pathParams(r)["name"]
	err := h.inSession(r.Context(), func(sess *store.Session) error {
		sess.RemoveIncident(name)
		return h.save(r.Context(), sess)
	})
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	h.requestLogger(r).Debugf("incident deleted: %s", name)
	w.WriteHeader(http.StatusOK)
}
