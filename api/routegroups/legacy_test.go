package routegroups

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValueFollowsKeyOrder(t *testing.T) {
	keys := []string{"name", "id"}
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/Accounts/GetByName?id=second&NAME=first&zzz=x&aaa=y", nil)
		require.Equal(t, "first", queryValue(req, keys))
	}

	req := httptest.NewRequest(http.MethodGet, "/?Id=only", nil)
	assert.Equal(t, "only", queryValue(req, keys))

	req = httptest.NewRequest(http.MethodGet, "/?other=x", nil)
	assert.Equal(t, "", queryValue(req, keys))
}

func TestRegisterLegacyPrefersFirstQueryKey(t *testing.T) {
	r := chi.NewRouter()
	RegisterLegacy(r, map[string]Controller{
		"Accounts": {
			Param:     "name",
			QueryKeys: []string{"accountName", "name", "id"},
			GetByName: func(w http.ResponseWriter, req *http.Request) {
				_, _ = w.Write([]byte(chi.URLParam(req, "name")))
			},
		},
	})

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/accounts/getbyname?id=Other&name=Acme", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "Acme", rr.Body.String())
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/accounts/getbyname/Path?name=Acme", nil))
	assert.Equal(t, "Path", rr.Body.String())
}
