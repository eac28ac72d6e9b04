// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	requestutil "github.com/taibuivan/kbase/internal/platform/request"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/pkg/slice"
)

// # Configuration Schema

// Config holds all runtime configuration for the kbase API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"production"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Only dialed when revocation is enabled.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	JWTSecret            string `env:"JWT_SECRET,required,notEmpty"`
	JWTAlgorithm         string `env:"JWT_ALGORITHM"            envDefault:"HS256"`
	AccessTokenTTLMinute int    `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"30"`
	RefreshTokenTTLDay   int    `env:"REFRESH_TOKEN_TTL_DAYS"   envDefault:"7"`

	// PasswordHashCost is the bcrypt work factor.
	PasswordHashCost int `env:"PASSWORD_HASH_COST" envDefault:"10"`

	// RevocationEnabled switches on the Redis-backed token denylist.
	RevocationEnabled bool `env:"REVOCATION_ENABLED" envDefault:"false"`

	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists comma separated addresses or CIDR ranges whose
	// X-Real-IP / X-Forwarded-For headers are believed. Empty trusts no one.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces cross-field rules the struct tags cannot express.
func (c *Config) validate() error {
	if c.AccessTokenTTLMinute <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.RefreshTokenTTLDay <= 0 {
		return errors.New("config: REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.RevocationEnabled && c.RedisURL == "" {
		return errors.New("config: REDIS_URL is required when REVOCATION_ENABLED is true")
	}
	if _, err := requestutil.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
	}
	return nil
}

// TokenConfig derives the signing configuration shared by the codec and verifier.
func (c *Config) TokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		Secret:     c.JWTSecret,
		Algorithm:  c.JWTAlgorithm,
		AccessTTL:  time.Duration(c.AccessTokenTTLMinute) * time.Minute,
		RefreshTTL: time.Duration(c.RefreshTokenTTLDay) * 24 * time.Hour,
	}
}

// Origins splits EXTRA_ORIGINS into a trimmed list.
func (c *Config) Origins() []string {
	origins := slice.Map(strings.Split(c.ExtraOrigins, ","), strings.TrimSpace)
	return slice.Filter(origins, func(origin string) bool { return origin != "" })
}

// Proxies returns the parsed TRUSTED_PROXIES list. [Load] rejects malformed
// lists; a hand-built Config holding one trusts no proxy at all.
func (c *Config) Proxies() requestutil.TrustedProxies {
	proxies, err := requestutil.ParseTrustedProxies(c.TrustedProxies)
	if err != nil {
		return nil
	}
	return proxies
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
