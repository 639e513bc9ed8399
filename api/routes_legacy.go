package api

import (
	"incidents-api/api/routegroups"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerLegacyRoutes(r chi.Router, h routeHandlers) {
	routegroups.RegisterLegacy(r, map[string]routegroups.Controller{
		"Accounts": {
			Param:           "name",
			QueryKeys:       []string{"accountName", "name", "id"},
			GetAll:          h.accounts.List,
			GetByName:       h.accounts.Get,
			Create:          h.accounts.Create,
			Edit:            h.accounts.Edit,
			DeleteConfirmed: h.accounts.Delete,
		},
		"Contacts": {
			Param:           "email",
			QueryKeys:       []string{"contactEmail", "email", "id"},
			GetAll:          h.contacts.List,
			GetByName:       h.contacts.Get,
			Create:          h.contacts.Create,
			Edit:            h.contacts.Edit,
			DeleteConfirmed: h.contacts.Delete,
		},
		"Incidents": {
			Param:           "name",
			QueryKeys:       []string{"incidentName", "incedentName", "name", "id"},
			GetAll:          h.incidents.List,
			GetByName:       h.incidents.Get,
			Create:          h.incidents.Create,
			Edit:            h.incidents.Edit,
			DeleteConfirmed: h.incidents.Delete,
		},
	})
}
