package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/graphql/bookstore"
	ordersgql "github.com/leviettung200/ByteDefence/internal/graphql/orders"
	"github.com/leviettung200/ByteDefence/internal/notify"
	"github.com/leviettung200/ByteDefence/internal/pubsub"
	"github.com/leviettung200/ByteDefence/internal/storage/memory"
)

func TestMethodMux(t *testing.T) {
	getHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("GET response"))
	})
	postHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("POST response"))
	})

	mux := methodMux("test", map[string]http.Handler{
		http.MethodGet:  getHandler,
		http.MethodPost: postHandler,
	})

	tests := []struct {
		name         string
		method       string
		expectStatus int
		expectBody   string
		expectAllow  string
	}{
		{name: "GET allowed", method: http.MethodGet, expectStatus: http.StatusOK, expectBody: "GET response"},
		{name: "POST allowed", method: http.MethodPost, expectStatus: http.StatusCreated, expectBody: "POST response"},
		{name: "PUT not allowed", method: http.MethodPut, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
		{name: "PATCH not allowed", method: http.MethodPatch, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, "/test", nil))

			if w.Code != tt.expectStatus {
				t.Errorf("expected status %d, got %d", tt.expectStatus, w.Code)
			}
			if tt.expectBody != "" && w.Body.String() != tt.expectBody {
				t.Errorf("expected body %q, got %q", tt.expectBody, w.Body.String())
			}
			if tt.expectAllow != "" {
				if allow := w.Header().Get("Allow"); allow != tt.expectAllow {
					t.Errorf("expected Allow header %q, got %q", tt.expectAllow, allow)
				}
				if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
					t.Errorf("expected problem content type, got %q", ct)
				}
			}
		})
	}
}

func TestAllowedMethods(t *testing.T) {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	tests := []struct {
		name     string
		handlers map[string]http.Handler
		expected string
	}{
		{name: "single method", handlers: map[string]http.Handler{http.MethodGet: noop}, expected: "GET"},
		{name: "two methods sorted", handlers: map[string]http.Handler{http.MethodPost: noop, http.MethodOptions: noop}, expected: "OPTIONS, POST"},
		{name: "multiple methods sorted", handlers: map[string]http.Handler{
			http.MethodPut: noop, http.MethodGet: noop, http.MethodDelete: noop, http.MethodPost: noop,
		}, expected: "DELETE, GET, POST, PUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := allowedMethods(tt.handlers); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func testConfig() config.Config {
	return config.Config{
		Environment: "test",
		CORS:        config.CORSConfig{AllowAllOrigins: true},
		RateLimit:   config.RateLimitConfig{PublicPerMinute: 100, LoginBurst: 2},
	}
}

func jwtManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTOptions{
		Secret:   "router-test-secret-with-at-least-32-bytes",
		Issuer:   "router-test",
		Audience: "router-clients",
		Expiry:   time.Hour,
	})
}

func newBookStoreRouter(t *testing.T, cfg config.Config) *Router {
	t.Helper()
	store := memory.NewStore()
	svc := books.NewService(store.Books(), pubsub.New[books.Event](), zerolog.Nop())
	schema, err := bookstore.NewSchema(svc)
	require.NoError(t, err)

	r := NewBookStoreRouter(cfg, BookStoreDeps{
		Schema: schema,
		Auth:   auth.NewBookStoreAuthenticator(jwtManager(), "demo-token"),
		Store:  store,
		Build:  BuildInfo{Version: "1.2.3"},
	}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

func newOrdersRouter(t *testing.T, cfg config.Config) *Router {
	t.Helper()
	store := memory.NewStore()
	dir, err := auth.NewDirectory(jwtManager(), auth.DefaultAccounts)
	require.NoError(t, err)
	schema, err := ordersgql.NewSchema(orders.NewService(store.Orders(), notify.Noop{}, zerolog.Nop()), dir)
	require.NoError(t, err)

	r := NewOrdersRouter(cfg, OrdersDeps{Schema: schema, Directory: dir, Store: store}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

func serve(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBookStoreRouter(t *testing.T) {
	r := newBookStoreRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/auth-info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"staticDemoToken":"demo-token"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(r, http.MethodGet, "/api/token", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))

	w = serve(r, http.MethodPost, "/api/token", `{"userId":"u-1","userName":"Tess"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var token struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&token))
	assert.Equal(t, 3600, token.ExpiresIn)

	mutation := `{"query":"mutation { createAuthor(input: {name: \"Ursula K. Le Guin\"}) { author { name } errors { code } } }"}`
	w = serve(r, http.MethodPost, "/api/graphql", mutation, "Content-Type", "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_NOT_AUTHORIZED")

	w = serve(r, http.MethodPost, "/api/graphql/bookstore", mutation,
		"Content-Type", "application/json", "Authorization", "Bearer "+token.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ursula K. Le Guin"`)

	w = serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
}

func TestBookStoreCORS(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://books.example"}}
	r := newBookStoreRouter(t, cfg)

	w := serve(r, http.MethodOptions, "/api/graphql", "", "Origin", "https://books.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://books.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/api/auth-info", "", "Origin", "https://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOrdersRouter(t *testing.T) {
	r := newOrdersRouter(t, testConfig())

	w := serve(r, http.MethodOptions, "/api/auth/login", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET,POST,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	// A garbage bearer on login is ignored rather than decoded.
	w = serve(r, http.MethodPost, "/api/auth/login", `{"username":"ADMIN","password":"admin123"}`,
		"Authorization", "Bearer garbage")
	require.Equal(t, http.StatusOK, w.Code)
	var login auth.AuthResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&login))
	assert.Equal(t, "user-admin", login.User.ID)

	query := `{"query":"{ orderStats { total } }"}`
	w = serve(r, http.MethodPost, "/api/graphql", query)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = serve(r, http.MethodPost, "/api/graphql", query, "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"orderStats":{"total":2}}}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/api/graphql", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "OPTIONS, POST", w.Header().Get("Allow"))

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bytedefence_http_requests_total")
}

func TestOrdersLoginRateLimit(t *testing.T) {
	r := newOrdersRouter(t, testConfig())

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodPost, "/api/auth/login", `{"username":"user","password":"wrong"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", strings.TrimSpace(w.Body.String()))
	}

	w := serve(r, http.MethodPost, "/api/auth/login", `{"username":"user","password":"user123"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "180", w.Header().Get("Retry-After"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// Preflight is not counted against the login tier.
	w = serve(r, http.MethodOptions, "/api/auth/login", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
