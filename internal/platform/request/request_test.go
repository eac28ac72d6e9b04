// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

/*
TestBearerToken covers the accepted and rejected Authorization header shapes.
*/
func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"absent", "", "", true},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase_scheme", "bearer abc", "abc", true},
		{"basic_scheme", "Basic dXNlcjpwYXNz", "", false},
		{"missing_token", "Bearer", "", false},
		{"blank_token", "Bearer    ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}

			token, ok := requestutil.BearerToken(request)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestClientIP_IgnoresHeadersWithoutResolvedAddress(t *testing.T) {
	request := httptest.NewRequest("GET", "/", nil)
	request.RemoteAddr = "10.0.0.1:5555"
	request.Header.Set("X-Forwarded-For", "203.0.113.7")
	request.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "10.0.0.1", requestutil.ClientIP(request))

	request = request.WithContext(ctxutil.WithClientIP(request.Context(), "192.0.2.44"))
	assert.Equal(t, "192.0.2.44", requestutil.ClientIP(request))
}

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := requestutil.ParseTrustedProxies([]string{" 10.0.0.0/8", "", "192.168.1.7", "::1"})
	require.NoError(t, err)
	require.Len(t, proxies, 3)

	assert.True(t, proxies.Trusts("10.20.30.40"))
	assert.True(t, proxies.Trusts("192.168.1.7"))
	assert.True(t, proxies.Trusts("::ffff:10.1.1.1"))
	assert.True(t, proxies.Trusts("::1"))
	assert.False(t, proxies.Trusts("192.168.1.8"))
	assert.False(t, proxies.Trusts("not-an-ip"))

	_, err = requestutil.ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = requestutil.ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestTrustedProxies_Resolve(t *testing.T) {
	proxies, err := requestutil.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		peer      string
		realIP    string
		forwarded string
		want      string
	}{
		{"untrusted_peer_ignores_real_ip", "203.0.113.9:4000", "198.51.100.2", "", "203.0.113.9"},
		{"untrusted_peer_ignores_forwarded", "203.0.113.9:4000", "", "198.51.100.2", "203.0.113.9"},
		{"trusted_peer_real_ip", "10.0.0.1:4000", "198.51.100.2", "", "198.51.100.2"},
		{"trusted_peer_invalid_real_ip_falls_through", "10.0.0.1:4000", "garbage", "198.51.100.3", "198.51.100.3"},
		{"trusted_peer_rightmost_untrusted_hop", "10.0.0.1:4000", "", "1.1.1.1, 198.51.100.4, 10.0.0.2", "198.51.100.4"},
		{"trusted_peer_all_hops_trusted", "10.0.0.1:4000", "", "10.0.0.3, 10.0.0.2", "10.0.0.3"},
		{"trusted_peer_no_headers", "10.0.0.1:4000", "", "", "10.0.0.1"},
		{"malformed_hop_stops_walk", "10.0.0.1:4000", "", "198.51.100.5, bogus, 10.0.0.2", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/", nil)
			request.RemoteAddr = tt.peer
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, proxies.Resolve(request))
		})
	}
}

func TestRequiredPrincipal(t *testing.T) {
	request := httptest.NewRequest("GET", "/", nil)

	_, err := requestutil.RequiredPrincipal(request)
	require.Error(t, err)
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)

	principal := &sec.Principal{UserID: "u1", Role: sec.RoleViewer}
	request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))

	got, err := requestutil.RequiredPrincipal(request)
	require.NoError(t, err)
	assert.Same(t, principal, got)
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Email string `json:"email"`
	}

	request := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.c"}`))
	require.NoError(t, requestutil.DecodeJSON(request, &target))
	assert.Equal(t, "a@b.c", target.Email)

	request = httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	assert.Error(t, requestutil.DecodeJSON(request, &target))
}
