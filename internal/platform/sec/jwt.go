// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, JWT signing
// and verification, role ordering) from the domain logic. Every type in here is
// immutable once constructed and performs no I/O, so a single instance is shared
// by all request goroutines without locking.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Configuration

// TokenConfig is the process-wide signing configuration, loaded once at startup.
type TokenConfig struct {
	// Secret is the shared HMAC key.
	Secret string

	// Algorithm is the single accepted JWS algorithm (HS256, HS384 or HS512).
	Algorithm string

	// AccessTTL is the default lifetime of access tokens.
	AccessTTL time.Duration

	// RefreshTTL is the default lifetime of refresh tokens.
	RefreshTTL time.Duration
}

// signingMethod resolves and validates the configuration.
func (cfg TokenConfig) signingMethod() (*jwt.SigningMethodHMAC, error) {
	if cfg.Secret == "" {
		return nil, errors.New("sec: token secret is not configured")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be greater than zero")
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", cfg.Algorithm)
	}
	return method, nil
}

// Option customizes a [TokenCodec] or [TokenVerifier].
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly so tests can move time around.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	built := options{now: time.Now}
	for _, opt := range opts {
		opt(&built)
	}
	return built
}

// # Token Codec

// TokenCodec mints signed tokens carrying security claims.
type TokenCodec struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec validates cfg and returns a ready codec.
//
// A configuration error here is a programmer error and should stop startup.
func NewTokenCodec(cfg TokenConfig, opts ...Option) (*TokenCodec, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}

	built := buildOptions(opts)
	return &TokenCodec{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        built.now,
	}, nil
}

/*
Mint signs a new token of the given type.

Description: Copies the caller's claims, then overwrites the security claims
(exp, iat, nbf, type, jti, and token_family for refresh tokens). The token type
always comes from tokenType; a "type" entry in claims is ignored.

Parameters:
  - claims: map[string]any (caller claims, usually at least "sub")
  - tokenType: TokenType
  - ttl: time.Duration (zero or negative selects the configured default)

Returns:
  - string: Compact serialized JWT
  - error: Unknown token type, entropy or signing failures
*/
func (codec *TokenCodec) Mint(claims map[string]any, tokenType TokenType, ttl time.Duration) (string, error) {
	if !tokenType.Valid() {
		return "", fmt.Errorf("sec: unknown token type %q", tokenType)
	}
	if ttl <= 0 {
		ttl = codec.DefaultTTL(tokenType)
	}

	tokenID, err := GenerateSecureToken(tokenIDBytes)
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate token id: %w", err)
	}

	payload := make(jwt.MapClaims, len(claims)+6)
	for name, value := range claims {
		payload[name] = value
	}

	currentTime := codec.now()
	payload[ClaimExpiresAt] = jwt.NewNumericDate(currentTime.Add(ttl))
	payload[ClaimIssuedAt] = jwt.NewNumericDate(currentTime)
	payload[ClaimNotBefore] = jwt.NewNumericDate(currentTime)
	payload[ClaimType] = string(tokenType)
	payload[ClaimTokenID] = tokenID

	// Only refresh tokens belong to a family.
	delete(payload, ClaimFamily)
	if tokenType == TokenRefresh {
		family, err := GenerateSecureToken(familyIDBytes)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate token family: %w", err)
		}
		payload[ClaimFamily] = family
	}

	signedToken, err := jwt.NewWithClaims(codec.method, payload).SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// DefaultTTL returns the configured lifetime for tokenType.
func (codec *TokenCodec) DefaultTTL(tokenType TokenType) time.Duration {
	if tokenType == TokenRefresh {
		return codec.refreshTTL
	}
	return codec.accessTTL
}

// # Token Pairs

// TokenPair is the access/refresh couple handed out on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

// MintPair mints an access and a refresh token for subject with default TTLs.
// extra claims are copied into both tokens.
func (codec *TokenCodec) MintPair(subject string, extra map[string]any) (TokenPair, error) {
	claims := make(map[string]any, len(extra)+1)
	for name, value := range extra {
		claims[name] = value
	}
	claims[ClaimSubject] = subject

	accessToken, err := codec.Mint(claims, TokenAccess, 0)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := codec.Mint(claims, TokenRefresh, 0)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  codec.accessTTL,
		RefreshExpiresIn: codec.refreshTTL,
	}, nil
}
