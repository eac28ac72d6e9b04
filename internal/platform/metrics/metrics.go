// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the HTTP layer and the
authentication flows.

All collectors live on a [Metrics] value registered against an explicit
[prometheus.Registerer], so tests can use a private registry. Every method is
safe on a nil *Metrics and then records nothing.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/kbase/internal/platform/constants"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

// Login outcomes reported on auth_logins_total.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// unmatchedRoute labels requests that matched no chi route.
const unmatchedRoute = "unmatched"

// Metrics holds every collector owned by the API process.
type Metrics struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	tokensMinted    *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
	logins          *prometheus.CounterVec
}

// New builds the collectors and registers them with registerer.
// It panics on duplicate registration, like [prometheus.MustRegister].
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		tokensMinted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_minted_total",
			Help: "Tokens issued, by token type.",
		}, []string{"type"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_rejections_total",
			Help: "Tokens rejected during verification, by expected type.",
		}, []string{"type"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts, by outcome.",
		}, []string{"outcome"}),
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "kbase API build information.",
	}, []string{"app", "version"})
	buildInfo.WithLabelValues(constants.AppName, constants.AppVersion).Set(1)

	registerer.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.tokensMinted,
		m.tokenRejections,
		m.logins,
		buildInfo,
	)
	return m
}

// Handler serves the collected metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// # HTTP Instrumentation

// Instrument records RPS, latency and in-flight requests.
//
// The route label is the chi route pattern, not the raw path, so ids in URLs do
// not explode label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := unmatchedRoute
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(recorder.code)
		m.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// # Authentication Counters

// TokenMinted counts an issued token.
func (m *Metrics) TokenMinted(tokenType sec.TokenType) {
	if m == nil {
		return
	}
	m.tokensMinted.WithLabelValues(string(tokenType)).Inc()
}

// TokenRejected counts a token that failed verification as tokenType.
func (m *Metrics) TokenRejected(tokenType sec.TokenType) {
	if m == nil {
		return
	}
	m.tokenRejections.WithLabelValues(string(tokenType)).Inc()
}

// Login counts a login attempt with outcome [LoginSuccess] or [LoginFailure].
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}
