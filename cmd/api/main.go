// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the kbase HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis when token revocation is enabled.
//  5. Run database migrations (idempotent).
//  6. Build the security core (hasher, codec, verifier).
//  7. Wire services and HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kbase/internal/api"
	"github.com/taibuivan/kbase/internal/platform/config"
	"github.com/taibuivan/kbase/internal/platform/constants"
	"github.com/taibuivan/kbase/internal/platform/metrics"
	"github.com/taibuivan/kbase/internal/platform/middleware"
	"github.com/taibuivan/kbase/internal/platform/migration"
	pgstore "github.com/taibuivan/kbase/internal/platform/postgres"
	redisstore "github.com/taibuivan/kbase/internal/platform/redis"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/system/audit"
	"github.com/taibuivan/kbase/internal/users/account"
	"github.com/taibuivan/kbase/internal/users/auth"
	"github.com/taibuivan/kbase/internal/users/identity"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("jwt_algorithm", cfg.JWTAlgorithm),
		slog.Bool("revocation_enabled", cfg.RevocationEnabled),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives as long as the server; stops background goroutines on shutdown.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	checks := []api.DependencyCheck{{
		Name: "postgres",
		Ping: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}}

	// ── 4. Redis ──────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RevocationEnabled {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		checks = append(checks, api.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		})
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Core ──────────────────────────────────────────────────
	hasher := sec.NewPasswordHasher(cfg.PasswordHashCost)

	codec, err := sec.NewTokenCodec(cfg.TokenConfig())
	must(log, err, "initialize token codec")

	verifier, err := sec.NewTokenVerifier(cfg.TokenConfig())
	must(log, err, "initialize token verifier")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	trail := audit.NewTrail(audit.NewPostgresRecorder(pool), log)
	identities := identity.NewPostgresRepository(pool)

	authOptions := []auth.Option{auth.WithMetrics(appMetrics), auth.WithTrail(trail)}
	if rdb != nil {
		authOptions = append(authOptions, auth.WithDenylist(auth.NewRedisDenylist(rdb)))
	}
	authService := auth.NewService(identities, hasher, codec, verifier, log, authOptions...)
	loginLimiter := middleware.RateLimit(runCtx, constants.LoginRateLimitRPS, constants.LoginRateLimitBurst)

	accountService := account.NewService(identities, hasher, trail, log)

	liveness, readiness := api.NewHealthHandlers(log, checks...)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, loginLimiter),
		Admin:     account.NewHandler(accountService),
	}
	if cfg.MetricsEnabled {
		handlers.Metrics = appMetrics
		handlers.MetricsHandler = metrics.Handler(registry)
	}

	server := api.NewServer(runCtx, cfg, log, authService, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger returns the JSON logger every entry of which carries the app name.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String(constants.FieldApp, constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
