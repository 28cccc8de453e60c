package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/CoverCatalog/internal/auth"
	"github.com/atinyakov/CoverCatalog/internal/models"
	"github.com/atinyakov/CoverCatalog/internal/repository"
	"github.com/atinyakov/CoverCatalog/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	productsFile string
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	creds, err := auth.NewDefaultCredentialStore(bcrypt.MinCost)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "products.json")
	repo := repository.NewFileProductRepository(path, zap.NewNop())
	require.NoError(t, repo.Save(t.Context(), []models.Product{
		{ID: 1, Name: "Test Auto Insurance", Description: "d", Price: 100, Coverage: "full", Deductible: 500},
	}))

	authSvc := service.NewAuthService(creds, auth.NewTokenCodec([]byte("router-test"), auth.NewRevocationSet()))
	router := NewRouter(
		&AuthHandler{AuthService: authSvc},
		&ProductHandler{ProductService: service.NewProductService(repo)},
		zap.NewNop(),
		opts,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, productsFile: path}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := s.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res, out
}

func (s *testServer) login(t *testing.T, user, pass string) (string, map[string]any) {
	t.Helper()
	res, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": user, "password": pass})
	require.Equal(t, http.StatusOK, res.StatusCode)
	return body["access_token"].(string), body
}

func TestRouter_Scenario(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	product := map[string]any{"name": "Auto", "description": "d", "price": 100.0, "coverage": "full", "deductible": 500}

	adminToken, body := s.login(t, "admin", "admin123")
	assert.Equal(t, map[string]any{"username": "admin", "role": "admin"}, body["user"])

	res, created := s.do(t, http.MethodPost, "/api/products", adminToken, product)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.EqualValues(t, 2, created["id"])

	userToken, body := s.login(t, "user", "user123")
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])

	res, body = s.do(t, http.MethodPost, "/api/products", userToken, product)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "Admin access required", body["error"])

	res, _ = s.do(t, http.MethodGet, "/api/products", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = s.do(t, http.MethodPost, "/api/auth/logout", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Successfully logged out", body["message"])

	res, body = s.do(t, http.MethodGet, "/api/products", adminToken, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])

	res, _ = s.do(t, http.MethodPost, "/api/auth/logout", adminToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "logging out twice fails")

	res, _ = s.do(t, http.MethodGet, "/api/products", userToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "other tokens stay valid")
}

func TestRouter_RoleGating(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	userToken, _ := s.login(t, "user", "user123")
	adminToken, _ := s.login(t, "admin", "admin123")

	mutations := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/products", map[string]any{"name": "n", "description": "d", "price": 1, "coverage": "c", "deductible": 0}},
		{http.MethodPut, "/api/products/1", map[string]any{"price": 5}},
		{http.MethodDelete, "/api/products/1", nil},
	}
	for _, m := range mutations {
		res, _ := s.do(t, m.method, m.path, "", m.body)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "%s %s without token", m.method, m.path)

		res, _ = s.do(t, m.method, m.path, userToken, m.body)
		assert.Equal(t, http.StatusForbidden, res.StatusCode, "%s %s as user", m.method, m.path)
	}
	for _, m := range mutations {
		res, _ := s.do(t, m.method, m.path, adminToken, m.body)
		assert.Less(t, res.StatusCode, 300, "%s %s as admin", m.method, m.path)
	}

	res, _ := s.do(t, http.MethodGet, "/api/products/1", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRouter_PartialUpdatePersists(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	adminToken, _ := s.login(t, "admin", "admin123")

	res, body := s.do(t, http.MethodPut, "/api/products/1", adminToken, map[string]any{"price": 20})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Test Auto Insurance", body["name"])
	assert.EqualValues(t, 20, body["price"])

	data, err := os.ReadFile(s.productsFile)
	require.NoError(t, err)
	var stored []models.Product
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, 20.0, stored[0].Price)
	assert.NotContains(t, string(data), "formatted_price")

	res, body = s.do(t, http.MethodPut, "/api/products/1", adminToken, map[string]any{"deductible": -1})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Deductible must be a non-negative number", body["error"])

	res, _ = s.do(t, http.MethodPut, "/api/products/99", adminToken, map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRouter_LoginFailures(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	res, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	res, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ghost", "password": "admin123"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"], "unknown user is indistinguishable from wrong password")

	res, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Username and password required", body["error"])
}

func TestRouter_HealthIsPublic(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	res, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_StaticAndCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>catalog</h1>"), 0o644))
	s := newTestServer(t, RouterOptions{StaticDir: dir, CORSOrigins: []string{"http://localhost:5173"}})

	res, err := s.Client().Get(s.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/api/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	pre, err := s.Client().Do(req)
	require.NoError(t, err)
	defer pre.Body.Close()
	assert.Equal(t, "http://localhost:5173", pre.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_FailuresCarryReason(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	login := `{"username":"admin","password":"admin123"}`

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantCode    int
		wantError   string
	}{
		{"login without content type", http.MethodPost, "/api/auth/login", "", login, http.StatusBadRequest, "Request must be JSON"},
		{"login as text/plain", http.MethodPost, "/api/auth/login", "text/plain", login, http.StatusBadRequest, "Request must be JSON"},
		{"login with trailing data", http.MethodPost, "/api/auth/login", "application/json", login + " junk", http.StatusBadRequest, "Request must be JSON"},
		{"login with second value", http.MethodPost, "/api/auth/login", "application/json", login + "{}", http.StatusBadRequest, "Request must be JSON"},
		{"unknown route", http.MethodGet, "/api/nope", "", "", http.StatusNotFound, "Not found"},
		{"unsupported method", http.MethodPatch, "/api/products", "", "", http.StatusMethodNotAllowed, "Method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, s.URL+tt.path, bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			res, err := s.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			require.Equal(t, tt.wantCode, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			var body errorResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/auth/login", bytes.NewBufferString(login))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	res, err := s.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode, "JSON with charset parameter is accepted")
}
