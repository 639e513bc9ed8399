package routegroups

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Controller is one resource reachable through the action-style routes
// /api/{controller}/{action}[/{id}].
type Controller struct {
	// Param is the URL param the resource handlers read the identity from.
	Param string
	// QueryKeys are accepted, case-insensitively, when the id is not in the path.
	QueryKeys []string

	GetAll          http.HandlerFunc
	GetByName       http.HandlerFunc
	Create          http.HandlerFunc
	Edit            http.HandlerFunc
	DeleteConfirmed http.HandlerFunc
}

// RegisterLegacy mounts the action routes. Controller and action names match
// case-insensitively.
func RegisterLegacy(r chi.Router, controllers map[string]Controller) {
	byName := make(map[string]Controller, len(controllers))
	for name, c := range controllers {
		byName[strings.ToLower(name)] = c
	}
	dispatch := func(w http.ResponseWriter, req *http.Request) {
		c, ok := byName[strings.ToLower(chi.URLParam(req, "controller"))]
		if !ok {
			http.NotFound(w, req)
			return
		}
		action := strings.ToLower(chi.URLParam(req, "action"))
		var (
			method string
			next   http.HandlerFunc
		)
		switch action {
		case "getall":
			method, next = http.MethodGet, c.GetAll
		case "getbyname":
			method, next = http.MethodGet, c.GetByName
		case "create":
			method, next = http.MethodPost, c.Create
		case "edit":
			method, next = http.MethodPost, c.Edit
		case "deleteconfirmed", "delete":
			method, next = http.MethodDelete, c.DeleteConfirmed
		}
		if next == nil {
			http.NotFound(w, req)
			return
		}
		if req.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if c.Param != "" {
			id := chi.URLParam(req, "id")
			if id == "" {
				id = queryValue(req, c.QueryKeys)
			}
			if rctx := chi.RouteContext(req.Context()); rctx != nil {
				rctx.URLParams.Add(c.Param, id)
			}
		}
		next(w, req)
	}
	r.HandleFunc("/api/{controller}/{action}", dispatch)
	r.HandleFunc("/api/{controller}/{action}/{id}", dispatch)
}

// queryValue returns the value of the first key in keys present in the query,
// matched case-insensitively.
func queryValue(r *http.Request, keys []string) string {
	query := r.URL.Query()
	for _, want := range keys {
		for key, values := range query {
			if strings.EqualFold(key, want) && len(values) > 0 {
				return values[0]
			}
		}
	}
	return ""
}
