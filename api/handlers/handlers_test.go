package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"incidents-api/config"
	"incidents-api/core/metrics"
	"incidents-api/core/store"
	"incidents-api/core/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEnv struct {
	accounts  *AccountsHandler
	contacts  *ContactsHandler
	incidents *IncidentsHandler
	metrics   *metrics.Collector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, utils.NewNopLogger())
}

func newTestEnvWithLogger(t *testing.T, logger *utils.Logger) *testEnv {
	t.Helper()
	cfg := &config.AppConfig{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "handlers.db")}
	db, err := store.NewDB(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.ApplyMigrations(context.Background(), db, logger))

	m := metrics.NewCollector("test")
	deps := Deps{Store: store.NewStore(db), Metrics: m, Logger: logger}
	return &testEnv{
		accounts:  NewAccountsHandler(deps),
		contacts:  NewContactsHandler(deps),
		incidents: NewIncidentsHandler(deps),
		metrics:   m,
	}
}

func call(t *testing.T, h http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (e *testEnv) seedContact(t *testing.T, email string) {
	t.Helper()
	rr := call(t, e.contacts.Create, http.MethodPost, "/contacts", map[string]any{
		"email": email, "firstName": "First", "lastName": "Last",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func (e *testEnv) seedAccount(t *testing.T, name, email string) {
	t.Helper()
	rr := call(t, e.accounts.Create, http.MethodPost, "/accounts", map[string]any{
		"name": name, "contactEmail": email,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestContactCreateAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	rr := call(t, env.contacts.Create, http.MethodPost, "/contacts", map[string]any{
		"email": "a@b.com", "firstName": "A", "lastName": "B",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[store.Contact](t, rr)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Nil(t, got.AccountName)
	assert.Contains(t, rr.Body.String(), `"accountName":null`)

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", map[string]any{"email": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Contact with same email exist")
}

func TestContactCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	rr := call(t, env.contacts.Create, http.MethodPost, "/contacts", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email format")

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", map[string]any{"email": "a@b.com", "accountName": "Ghost"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Account with name = Ghost doesn't exist")
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	env := newTestEnv(t)

	rr := call(t, env.contacts.Create, http.MethodPost, "/contacts", `{"email":"a@b.com"} trailing`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", `{"email":"a@b.com"}{"email":"c@d.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, env.contacts.List, http.MethodGet, "/contacts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]store.Contact](t, rr))

	rr = call(t, env.contacts.Create, http.MethodPost, "/contacts", "{\"email\":\"a@b.com\"}\n\t ")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestContactGetMissing(t *testing.T) {
	env := newTestEnv(t)
	rr := call(t, env.contacts.Get, http.MethodGet, "/contacts/none@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContactEdit(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")

	rr := call(t, env.contacts.Edit, http.MethodPost, "/contacts/a@b.com", map[string]any{
		"email": "a@b.com", "firstName": "New", "lastName": "Last",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "New", decode[store.Contact](t, rr).FirstName)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("updated")))

	rr = call(t, env.contacts.Edit, http.MethodPost, "/contacts/a@b.com", map[string]any{"email": "other@b.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = call(t, env.contacts.Edit, http.MethodPost, "/contacts/missing@b.com", map[string]any{"email": "missing@b.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContactEditWithUnchangedValues(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")
	env.seedAccount(t, "Acme", "a@b.com")

	rr := call(t, env.contacts.Get, http.MethodGet, "/contacts/a@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	before := decode[store.Contact](t, rr)

	rr = call(t, env.contacts.Edit, http.MethodPost, "/contacts/a@b.com", map[string]any{
		"email": "a@b.com", "firstName": "First", "lastName": "Last", "accountName": "Acme",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, before, decode[store.Contact](t, rr))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("unchanged")))
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("updated")))

	rr = call(t, env.contacts.Get, http.MethodGet, "/contacts/a@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, before, decode[store.Contact](t, rr))
}

func TestAccountCreateRequiresExistingContact(t *testing.T) {
	env := newTestEnv(t)
	rr := call(t, env.accounts.Create, http.MethodPost, "/accounts", map[string]any{
		"name": "X", "contactEmail": "nonexistent@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Contact Not Found")

	rr = call(t, env.accounts.List, http.MethodGet, "/accounts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]store.Account](t, rr))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Reconciliations.WithLabelValues("account_create", "reference_not_found")))
}

func TestAccountCreateLinksContact(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")

	rr := call(t, env.accounts.Create, http.MethodPost, "/accounts", map[string]any{
		"name": "Acme", "contactEmail": "a@b.com",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	acc := decode[store.Account](t, rr)
	assert.Equal(t, "Acme", acc.Name)
	assert.Nil(t, acc.IncidentName)
	require.Len(t, acc.Contacts, 1)
	require.NotNil(t, acc.Contacts[0].AccountName)
	assert.Equal(t, "Acme", *acc.Contacts[0].AccountName)

	rr = call(t, env.contacts.Get, http.MethodGet, "/contacts/a@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	c := decode[store.Contact](t, rr)
	require.NotNil(t, c.AccountName)
	assert.Equal(t, "Acme", *c.AccountName)

	rr = call(t, env.accounts.Create, http.MethodPost, "/accounts", map[string]any{
		"name": "Acme", "contactEmail": "a@b.com",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAccountCreateWithUnknownIncident(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")
	rr := call(t, env.accounts.Create, http.MethodPost, "/accounts", map[string]any{
		"name": "Acme", "contactEmail": "a@b.com", "incidentName": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Incident with name = nope doesn't exist")
}

func TestAccountEdit(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")
	env.seedAccount(t, "Acme", "a@b.com")

	rr := call(t, env.accounts.Edit, http.MethodPost, "/accounts/Acme", map[string]any{
		"name": "Acme", "contactEmail": "a@b.com",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, decode[store.Account](t, rr).Contacts, 1)

	rr = call(t, env.accounts.Edit, http.MethodPost, "/accounts/Acme", map[string]any{
		"name": "Other", "contactEmail": "a@b.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = call(t, env.accounts.Edit, http.MethodPost, "/accounts/Missing", map[string]any{
		"name": "Missing", "contactEmail": "a@b.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = call(t, env.accounts.Edit, http.MethodPost, "/accounts/Acme", map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAccountEditWithUnchangedValues(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")
	env.seedAccount(t, "Acme", "a@b.com")
	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName": "Acme", "contactEmail": "a@b.com", "contactFirstName": "First", "contactLastName": "Last",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	inc := decode[store.Incident](t, rr)

	rr = call(t, env.accounts.Get, http.MethodGet, "/accounts/Acme", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	before := decode[store.Account](t, rr)
	require.NotNil(t, before.IncidentName)
	require.Equal(t, inc.Name, *before.IncidentName)

	rr = call(t, env.accounts.Edit, http.MethodPost, "/accounts/Acme", map[string]any{
		"name": "Acme", "contactEmail": "a@b.com", "incidentName": inc.Name,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, before, decode[store.Account](t, rr))

	rr = call(t, env.accounts.Get, http.MethodGet, "/accounts/Acme", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	after := decode[store.Account](t, rr)
	assert.Equal(t, before, after)
	require.NotNil(t, after.IncidentName)
	assert.Equal(t, inc.Name, *after.IncidentName)

	rr = call(t, env.contacts.Get, http.MethodGet, "/contacts/a@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	c := decode[store.Contact](t, rr)
	require.NotNil(t, c.AccountName)
	assert.Equal(t, "Acme", *c.AccountName)
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Reconciliations.WithLabelValues("account_edit", "ok")))
}

func TestAccountDeleteClearsContactReference(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "a@b.com")
	env.seedAccount(t, "Acme", "a@b.com")

	rr := call(t, env.accounts.Delete, http.MethodDelete, "/accounts/Acme", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, env.accounts.Get, http.MethodGet, "/accounts/Acme", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = call(t, env.contacts.Get, http.MethodGet, "/contacts/a@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[store.Contact](t, rr).AccountName)

	rr = call(t, env.accounts.Delete, http.MethodDelete, "/accounts/Acme", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestIncidentCreateUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName": "Ghost", "contactEmail": "a@b.com", "incidentDescription": "x",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Account not Found")

	rr = call(t, env.incidents.List, http.MethodGet, "/incidents", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]store.Incident](t, rr))
}

func TestIncidentCreateBindsAccountAndCreatesContact(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "owner@b.com")
	env.seedAccount(t, "Acme", "owner@b.com")

	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName":         "Acme",
		"contactFirstName":    "Rep",
		"contactLastName":     "Orter",
		"contactEmail":        "rep@b.com",
		"incidentDescription": "server down",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	inc := decode[store.Incident](t, rr)
	assert.NotEmpty(t, inc.Name)
	assert.Equal(t, "server down", inc.Description)
	require.Len(t, inc.Accounts, 1)
	assert.Equal(t, "Acme", inc.Accounts[0].Name)
	assert.Len(t, inc.Accounts[0].Contacts, 2)

	rr = call(t, env.accounts.Get, http.MethodGet, "/accounts/Acme", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	acc := decode[store.Account](t, rr)
	require.NotNil(t, acc.IncidentName)
	assert.Equal(t, inc.Name, *acc.IncidentName)

	rr = call(t, env.contacts.Get, http.MethodGet, "/contacts/rep@b.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	c := decode[store.Contact](t, rr)
	assert.Equal(t, "Rep", c.FirstName)
	require.NotNil(t, c.AccountName)
	assert.Equal(t, "Acme", *c.AccountName)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("created")))
}

func TestIncidentEditIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "owner@b.com")
	env.seedAccount(t, "Acme", "owner@b.com")

	body := map[string]any{
		"accountName":         "Acme",
		"contactFirstName":    "First",
		"contactLastName":     "Last",
		"contactEmail":        "owner@b.com",
		"incidentDescription": "disk full",
	}
	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	created := decode[store.Incident](t, rr)

	rr = call(t, env.incidents.Edit, http.MethodPost, "/incidents/"+created.Name, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	edited := decode[store.Incident](t, rr)
	assert.Equal(t, created, edited)

	body["incidentDescription"] = "disk really full"
	rr = call(t, env.incidents.Edit, http.MethodPost, "/incidents/"+created.Name, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "disk really full", decode[store.Incident](t, rr).Description)
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.ContactUpserts.WithLabelValues("unchanged")))
}

func TestIncidentEditMissing(t *testing.T) {
	env := newTestEnv(t)
	rr := call(t, env.incidents.Edit, http.MethodPost, "/incidents/nope", map[string]any{
		"accountName": "Acme", "contactEmail": "a@b.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIncidentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "owner@b.com")
	env.seedAccount(t, "Acme", "owner@b.com")

	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName": "Acme", "contactEmail": "bad email@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName": strings.Repeat("x", 101), "contactEmail": "a@b.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{"contactEmail": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIncidentDeleteKeepsAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedContact(t, "owner@b.com")
	env.seedAccount(t, "Acme", "owner@b.com")
	rr := call(t, env.incidents.Create, http.MethodPost, "/incidents", map[string]any{
		"accountName": "Acme", "contactEmail": "owner@b.com", "contactFirstName": "First", "contactLastName": "Last",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	inc := decode[store.Incident](t, rr)

	rr = call(t, env.incidents.Delete, http.MethodDelete, "/incidents/"+inc.Name, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, env.accounts.Get, http.MethodGet, "/accounts/Acme", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[store.Account](t, rr).IncidentName)
}

func TestDeleteLogsWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	env := newTestEnvWithLogger(t, utils.FromZap(zap.New(core)))
	env.seedContact(t, "a@b.com")

	req := httptest.NewRequest(http.MethodDelete, "/contacts/a@b.com", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
	rr := httptest.NewRecorder()
	env.contacts.Delete(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	entries := logs.FilterMessage("contact deleted: a@b.com").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}
