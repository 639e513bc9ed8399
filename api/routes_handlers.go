package api

import (
	"incidents-api/api/handlers"

	"github.com/go-chi/chi/v5"
)

type routeHandlers struct {
	accounts  *handlers.AccountsHandler
	contacts  *handlers.ContactsHandler
	incidents *handlers.IncidentsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	deps := handlers.Deps{Store: s.store, Metrics: s.metrics, Logger: s.logger}
	return routeHandlers{
		accounts:  handlers.NewAccountsHandler(deps),
		contacts:  handlers.NewContactsHandler(deps),
		incidents: handlers.NewIncidentsHandler(deps),
	}
}

func (s *Server) registerResourceRoutes(r chi.Router, h routeHandlers) {
	r.Route("/accounts", func(accountsRouter chi.Router) {
		accountsRouter.MethodFunc("GET", "/", h.accounts.List)
		accountsRouter.MethodFunc("POST", "/", h.accounts.Create)
		accountsRouter.MethodFunc("GET", "/{name}", h.accounts.Get)
		accountsRouter.MethodFunc("POST", "/{name}", h.accounts.Edit)
		accountsRouter.MethodFunc("DELETE", "/{name}", h.accounts.Delete)
	})

	r.Route("/contacts", func(contactsRouter chi.Router) {
		contactsRouter.MethodFunc("GET", "/", h.contacts.List)
		contactsRouter.MethodFunc("POST", "/", h.contacts.Create)
		contactsRouter.MethodFunc("GET", "/{email}", h.contacts.Get)
		contactsRouter.MethodFunc("POST", "/{email}", h.contacts.Edit)
		contactsRouter.MethodFunc("DELETE", "/{email}", h.contacts.Delete)
	})

	r.Route("/incidents", func(incidentsRouter chi.Router) {
		incidentsRouter.MethodFunc("GET", "/", h.incidents.List)
		incidentsRouter.MethodFunc("POST", "/", h.incidents.Create)
		incidentsRouter.MethodFunc("GET", "/{name}", h.incidents.Get)
		incidentsRouter.MethodFunc("POST", "/{name}", h.incidents.Edit)
		incidentsRouter.MethodFunc("DELETE", "/{name}", h.incidents.Delete)
	})
}
