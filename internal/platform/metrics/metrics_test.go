// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kbase/internal/platform/metrics"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

// counterValue sums the counter samples of family whose labels include want.
func counterValue(t *testing.T, registry *prometheus.Registry, family string, want map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, metricFamily := range families {
		if metricFamily.GetName() != family {
			continue
		}
		for _, metric := range metricFamily.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			matches := true
			for name, value := range want {
				if labels[name] != value {
					matches = false
				}
			}
			if matches {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestMetrics_AuthCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	recorder.TokenMinted(sec.TokenAccess)
	recorder.TokenMinted(sec.TokenAccess)
	recorder.TokenMinted(sec.TokenRefresh)
	recorder.TokenRejected(sec.TokenRefresh)
	recorder.Login(metrics.LoginSuccess)
	recorder.Login(metrics.LoginFailure)
	recorder.Login(metrics.LoginFailure)

	assert.Equal(t, 2.0, counterValue(t, registry, "auth_tokens_minted_total", map[string]string{"type": "access"}))
	assert.Equal(t, 1.0, counterValue(t, registry, "auth_tokens_minted_total", map[string]string{"type": "refresh"}))
	assert.Equal(t, 1.0, counterValue(t, registry, "auth_token_rejections_total", map[string]string{"type": "refresh"}))
	assert.Equal(t, 2.0, counterValue(t, registry, "auth_logins_total", map[string]string{"outcome": "failure"}))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var recorder *metrics.Metrics

	assert.NotPanics(t, func() {
		recorder.TokenMinted(sec.TokenAccess)
		recorder.TokenRejected(sec.TokenAccess)
		recorder.Login(metrics.LoginSuccess)
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, recorder.Instrument(next))
}

func TestMetrics_InstrumentUsesRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	router := chi.NewRouter()
	router.Use(recorder.Instrument)
	router.Get("/users/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	}

	assert.Equal(t, 3.0, counterValue(t, registry, "http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/users/{id}",
		"status": "418",
	}))
}

func TestHandler_ServesTextFormat(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.New(registry).Login(metrics.LoginSuccess)

	response := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, string(body), `auth_logins_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "build_info")
}
