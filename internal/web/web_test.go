package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2389/slicehouse/internal/auth"
	"github.com/2389/slicehouse/internal/notify"
	"github.com/2389/slicehouse/internal/store"
)

// testEnv bundles the API under test with its backing store.
type testEnv struct {
	api   *API
	mux   *http.ServeMux
	store *store.SQLiteStore
}

// setupAPI creates an API over a temporary SQLite store. bcrypt runs at its
// minimum cost so the suite stays fast.
func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	api := New(
		st,
		auth.NewPasswordHasher(4),
		auth.NewTOTPProvider("slicehouse-test"),
		auth.NewChallengeIssuer([]byte("test-challenge-secret"), time.Minute),
		notify.NewLogSender(),
		Config{
			SessionTTL:     time.Hour,
			LoginPerMinute: 600,
			LoginBurst:     100,
		},
	)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	return &testEnv{api: api, mux: mux, store: st}
}

// postJSON performs a JSON POST, attaching any cookies given.
func (e *testEnv) postJSON(t *testing.T, path string, body map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// postForm performs a form-encoded POST.
func postForm(t *testing.T, env *testEnv, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

// get performs a GET, attaching any cookies given.
func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// sessionCookie extracts the session cookie from a response, failing the
// test when it's absent.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// decodeBody unmarshals a JSON response body into a map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// register creates a user through the API and asserts success.
func (e *testEnv) register(t *testing.T, username, password, email string) {
	t.Helper()

	rec := e.postJSON(t, "/register", map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register %s: %s", username, rec.Body.String())
}

// login authenticates and returns the session cookie.
func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()

	rec := e.postJSON(t, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login %s: %s", username, rec.Body.String())
	return sessionCookie(t, rec)
}
