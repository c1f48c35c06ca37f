package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/talent-portal/internal/api"
	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

const meBody = `{"data":{"me":{"id":"u-1","email":"ada@example.gc.ca","firstName":"Ada","lastName":"Lovelace",
"roleAssignments":[{"id":"ra-1","role":{"id":"r-1","name":"applicant"}}]}}}`

// testEnv holds the router and the stores behind it.
type testEnv struct {
	Router http.Handler
	Local  *storage.MemoryStore

	mu   sync.Mutex
	auth []string
}

func (e *testEnv) authHeaders() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.auth...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStores(t, storage.NewMemoryStore())
}

func newTestEnvWithStores(t *testing.T, local *storage.MemoryStore) *testEnv {
	t.Helper()
	env := &testEnv{Local: local}
	gql := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.auth = append(env.auth, r.Header.Get("Authorization"))
		env.mu.Unlock()
		_, _ = w.Write([]byte(meBody))
	}))
	t.Cleanup(gql.Close)

	cat, err := i18n.NewCatalog("en")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	stores := storage.Stores{Session: storage.NewMemoryStore()}
	if local != nil {
		stores.Local = local
	}
	router, err := api.NewAPIRouter(api.Deps{
		Catalog:     cat,
		Pool:        apiclient.NewPoolWithClient(gql.URL, gql.Client()),
		Stores:      stores,
		Selectors:   []string{"html"},
		CORSOrigins: []string{"http://localhost:*"},
	})
	if err != nil {
		t.Fatalf("NewAPIRouter: %v", err)
	}
	env.Router = router
	return env
}

func do(env *testEnv, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestMe_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	rec := do(env, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decode[api.ErrorResponse](t, rec); got.Code != "unauthorized" {
		t.Errorf("code = %q", got.Code)
	}
	if n := len(env.authHeaders()); n != 0 {
		t.Errorf("GraphQL called %d times for an anonymous caller", n)
	}
}

func TestMe_BearerToken(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := do(env, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	want := api.UserResponse{
		ID: "u-1", Email: "ada@example.gc.ca", FirstName: "Ada", LastName: "Lovelace",
		DisplayName: "Ada Lovelace", Roles: []string{"applicant"},
	}
	if diff := cmp.Diff(want, decode[api.UserResponse](t, rec)); diff != "" {
		t.Errorf("user (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bearer tok-1"}, env.authHeaders()); diff != "" {
		t.Errorf("forwarded credentials (-want +got):\n%s", diff)
	}
}

func TestMe_StoredDeviceToken(t *testing.T) {
	env := newTestEnv(t)
	_ = env.Local.Write(context.Background(), auth.AccessTokenKey, "device-tok")

	rec := do(env, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if diff := cmp.Diff([]string{"Bearer device-tok"}, env.authHeaders()); diff != "" {
		t.Errorf("forwarded credentials (-want +got):\n%s", diff)
	}
}

func TestGetTheme(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/preferences/theme", nil)
	req.Header.Set(theme.ClientHintHeader, "dark")
	rec := do(env, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := api.ThemeResponse{Key: "default", Mode: "pref", Effective: "dark", ClassName: "default dark"}
	if diff := cmp.Diff(want, decode[api.ThemeResponse](t, rec)); diff != "" {
		t.Errorf("theme (-want +got):\n%s", diff)
	}
}

func TestPutTheme(t *testing.T) {
	env := newTestEnv(t)
	rec := do(env, httptest.NewRequest(http.MethodPut, "/preferences/theme", strings.NewReader(`{"mode":"dark"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[api.ThemeResponse](t, rec); got.Mode != "dark" || got.Key != "default" {
		t.Errorf("theme = %+v", got)
	}
	stored := storage.Get(context.Background(), env.Local, theme.StorageKey, theme.Theme{})
	if stored != (theme.Theme{Key: "default", Mode: theme.Dark}) {
		t.Errorf("stored = %+v", stored)
	}

	rec = do(env, httptest.NewRequest(http.MethodGet, "/preferences/theme", nil))
	if got := decode[api.ThemeResponse](t, rec); got.ClassName != "default dark" {
		t.Errorf("theme after write = %+v", got)
	}
}

func TestPutTheme_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, "bad_request"},
		{"empty", `{}`, http.StatusBadRequest, "bad_request"},
		{"bad mode", `{"mode":"sepia"}`, http.StatusBadRequest, "invalid_mode"},
		{"bad key", `{"key":"Not Valid"}`, http.StatusBadRequest, "invalid_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := do(env, httptest.NewRequest(http.MethodPut, "/preferences/theme", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode[api.ErrorResponse](t, rec); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestPutTheme_NoDeviceStorage(t *testing.T) {
	env := newTestEnvWithStores(t, nil)
	rec := do(env, httptest.NewRequest(http.MethodPut, "/preferences/theme", strings.NewReader(`{"mode":"light"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decode[api.ErrorResponse](t, rec); got.Code != "storage_unavailable" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/preferences/theme", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := do(env, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := do(env, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decode[api.ErrorResponse](t, rec); got.Code != "not_found" {
		t.Errorf("code = %q", got.Code)
	}
}
