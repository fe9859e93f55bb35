package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/listings"
	"github.com/prowe12/plantswap/internal/models"
	"github.com/prowe12/plantswap/internal/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	srv   *httptest.Server
	users *store.MemoryStore
	svc   *auth.Service
	clock *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	mem := store.NewMemoryStore()
	tokens := auth.NewTokenManager([]byte("e2e-secret"), clock.Now)
	svc := auth.NewService(mem, auth.NewBcryptHasher(bcrypt.MinCost), tokens, 30*time.Minute, nil)

	srv := httptest.NewServer(NewRouter(Deps{
		Auth:           auth.NewHandler(svc, nil),
		Authenticator:  auth.NewAuthenticator(tokens, mem),
		Listings:       listings.NewHandler(mem, nil, nil),
		AllowedOrigins: []string{"http://localhost:5173"},
	}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, users: mem, svc: svc, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, token, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	return e.do(t, http.MethodPost, "/token", "", "application/x-www-form-urlencoded", form.Encode())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/users/", "", "application/json", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.login(t, "alice", "secret123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[models.TokenResponse](t, resp)
	assert.Equal(t, "bearer", tok.TokenType)

	resp = e.do(t, http.MethodGet, "/users/me", tok.AccessToken, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, true, me["is_active"])
	assert.NotContains(t, me, "password_hash")

	resp = e.login(t, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	resp = e.login(t, "nobody", "secret123")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	e.clock.Advance(31 * time.Minute)
	resp = e.do(t, http.MethodGet, "/users/me", tok.AccessToken, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "could not validate credentials", decode[map[string]string](t, resp)["detail"])
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodPost, "/shares/"},
		{http.MethodDelete, "/shares/1"},
		{http.MethodPut, "/shares/1/photo"},
		{http.MethodPost, "/requests/"},
		{http.MethodDelete, "/requests/1"},
	} {
		resp := e.do(t, r.method, r.path, "", "application/json", `{}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}

	resp := e.do(t, http.MethodGet, "/users/me", "not.a.token", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInactiveUserForbidden(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/users/", "", "application/json", `{"username":"bob","password":"pw"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.login(t, "bob", "pw")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[models.TokenResponse](t, resp)

	require.NoError(t, e.svc.SetActive(t.Context(), "bob", false))

	resp = e.do(t, http.MethodGet, "/users/me", tok.AccessToken, "", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "inactive user", decode[map[string]string](t, resp)["detail"])
}

func TestDeletedSubjectUnauthenticated(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/users/", "", "application/json", `{"username":"carol","password":"pw"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tok := decode[models.TokenResponse](t, e.login(t, "carol", "pw"))

	e.users.Remove("carol")
	resp = e.do(t, http.MethodGet, "/users/me", tok.AccessToken, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListingsFlow(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/users/", "", "application/json", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tok := decode[models.TokenResponse](t, e.login(t, "alice", "secret123")).AccessToken

	resp = e.do(t, http.MethodPost, "/shares/", tok, "application/json", `{"plant_name":"Monstera","amount":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sh := decode[models.Share](t, resp)
	assert.Equal(t, "alice", sh.SharedBy)

	resp = e.do(t, http.MethodGet, "/shares/", "", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Share](t, resp), 1)

	resp = e.do(t, http.MethodDelete, "/shares/12345", tok, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Plant not found", decode[map[string]string](t, resp)["detail"])

	resp = e.do(t, http.MethodPost, "/requests/", tok, "application/json", `{"plant_name":"Fern","amount":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/requests/", "", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reqs := decode[[]models.Request](t, resp)
	require.Len(t, reqs, 1)
	assert.Equal(t, "alice", reqs[0].RequestedBy)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/shares/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
