// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/ctxutil"
	"github.com/taibuivan/kbase/internal/platform/middleware"
	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

// fakeAuthenticator maps raw tokens to principals or errors.
type fakeAuthenticator struct {
	principals map[string]*sec.Principal
	errors     map[string]error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*sec.Principal, error) {
	if err, ok := f.errors[token]; ok {
		return nil, err
	}
	if principal, ok := f.principals[token]; ok {
		return principal, nil
	}
	return nil, apperr.InvalidToken()
}

func newAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{
		principals: map[string]*sec.Principal{
			"viewer-token": {UserID: "viewer-1", Role: sec.RoleViewer},
			"editor-token": {UserID: "editor-1", Role: sec.RoleEditor},
			"admin-token":  {UserID: "admin-1", Role: sec.RoleAdmin},
		},
		errors: map[string]error{
			"inactive-token": apperr.Forbidden("Inactive user"),
		},
	}
}

// whoAmI echoes the authenticated user id, or "anonymous".
func whoAmI(writer http.ResponseWriter, request *http.Request) {
	principal := ctxutil.GetPrincipal(request.Context())
	if principal == nil {
		_, _ = io.WriteString(writer, "anonymous")
		return
	}
	_, _ = io.WriteString(writer, principal.UserID)
}

func serve(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, request)
	return response
}

/*
TestAuthenticate covers anonymous, malformed, rejected, inactive and valid callers.
*/
func TestAuthenticate(t *testing.T) {
	handler := middleware.Authenticate(newAuthenticator())(http.HandlerFunc(whoAmI))

	tests := []struct {
		name          string
		authorization string
		status        int
		body          string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"malformed_header", "Token abc", http.StatusUnauthorized, ""},
		{"rejected_token", "Bearer forged", http.StatusUnauthorized, ""},
		{"inactive_identity", "Bearer inactive-token", http.StatusForbidden, ""},
		{"valid_token", "Bearer editor-token", http.StatusOK, "editor-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := serve(handler, tt.authorization)
			assert.Equal(t, tt.status, response.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, response.Body.String())
			}
		})
	}
}

/*
TestRequireRole separates unauthenticated (401) from insufficient role (403).
*/
func TestRequireRole(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(newAuthenticator()))
	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/", whoAmI)

	tests := []struct {
		name          string
		authorization string
		status        int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"viewer", "Bearer viewer-token", http.StatusForbidden},
		{"editor", "Bearer editor-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(router, tt.authorization).Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(newAuthenticator()))
	router.With(middleware.RequireAuth).Get("/", whoAmI)

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusOK, serve(router, "Bearer viewer-token").Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	// Generated when absent
	response := serve(handler, "")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, response.Header().Get("X-Request-ID"))

	// Propagated when supplied
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "client-supplied")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-supplied", seen)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 0.001, 2)(http.HandlerFunc(whoAmI))

	assert.Equal(t, http.StatusOK, serve(handler, "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, "").Code)

	limited := serve(handler, "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
}

func TestRateLimit_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limited := middleware.RateLimit(ctx, 0.0001, 1)(http.HandlerFunc(whoAmI))
	chains := map[string]http.Handler{
		"no_trusted_proxies":   middleware.ClientIP(nil)(limited),
		"resolver_not_mounted": middleware.RateLimit(ctx, 0.0001, 1)(http.HandlerFunc(whoAmI)),
	}

	for name, handler := range chains {
		t.Run(name, func(t *testing.T) {
			allowed := 0
			for i := range 50 {
				request := httptest.NewRequest(http.MethodGet, "/", nil)
				request.RemoteAddr = "203.0.113.50:40000"
				request.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
				request.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i))
				response := httptest.NewRecorder()
				handler.ServeHTTP(response, request)
				if response.Code == http.StatusOK {
					allowed++
				}
			}
			assert.Equal(t, 1, allowed)
		})
	}
}

func TestRateLimit_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxies, err := requestutil.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	handler := middleware.ClientIP(proxies)(middleware.RateLimit(ctx, 0.0001, 1)(http.HandlerFunc(whoAmI)))

	viaProxy := func(client string) int {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "10.0.0.1:40000"
		request.Header.Set("X-Forwarded-For", client)
		response := httptest.NewRecorder()
		handler.ServeHTTP(response, request)
		return response.Code
	}

	assert.Equal(t, http.StatusOK, viaProxy("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, viaProxy("198.51.100.1"))
	assert.Equal(t, http.StatusOK, viaProxy("198.51.100.2"))
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	var response *httptest.ResponseRecorder
	require.NotPanics(t, func() { response = serve(handler, "") })
	assert.Equal(t, http.StatusInternalServerError, response.Code)
}

type corsConfig struct {
	development bool
	origins     []string
}

func (c corsConfig) IsDevelopment() bool { return c.development }
func (c corsConfig) Origins() []string   { return c.origins }

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         corsConfig
		origin      string
		allowed     bool
		credentials bool
	}{
		{"development_echoes_unlisted", corsConfig{development: true}, "http://localhost:3000", true, false},
		{"development_listed", corsConfig{development: true, origins: []string{"http://localhost:3000"}}, "http://localhost:3000", true, true},
		{"production_subdomain", corsConfig{}, "https://app.kbase.app", true, true},
		{"production_listed", corsConfig{origins: []string{"https://partner.example.com"}}, "https://partner.example.com", true, true},
		{"production_unknown", corsConfig{}, "https://evil.example.com", false, false},
		{"production_lookalike", corsConfig{}, "https://evilkbase.app", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.CORS(tt.cfg)(http.HandlerFunc(whoAmI))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Origin", tt.origin)
			response := httptest.NewRecorder()
			handler.ServeHTTP(response, request)

			if tt.allowed {
				assert.Equal(t, tt.origin, response.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, response.Header().Get("Access-Control-Allow-Origin"))
			}
			if tt.credentials {
				assert.Equal(t, "true", response.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, response.Header().Get("Access-Control-Allow-Credentials"))
			}
			assert.Equal(t, []string{"Origin"}, response.Header().Values("Vary"))
		})
	}
}

func TestCORS_VariesWithoutOrigin(t *testing.T) {
	handler := middleware.CORS(corsConfig{})(http.HandlerFunc(whoAmI))

	response := serve(handler, "")

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "Origin", response.Header().Get("Vary"))
	assert.Empty(t, response.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := middleware.CORS(corsConfig{development: true})(http.HandlerFunc(whoAmI))

	request := httptest.NewRequest(http.MethodOptions, "/", nil)
	request.Header.Set("Origin", "http://localhost:3000")
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, request)

	assert.Equal(t, http.StatusNoContent, response.Code)
}
