// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the session lifecycle of kbase: login, token refresh,
logout and per-request authentication.

# Architecture

Sessions are stateless. The [Service] mints an access/refresh pair with
[sec.TokenCodec] and resolves bearer tokens back into a [sec.Principal] with
[sec.TokenVerifier] plus an identity lookup. The only server-side state is the
optional revocation [sec.Denylist], backed by Redis.
*/
package auth

import (
	"time"

	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/users/identity"
)

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "Bearer"

// # Session

// Session is a freshly minted token pair together with the identity it belongs to.
type Session struct {
	sec.TokenPair
	User *identity.Identity
}

// # Inputs

// ClientInfo describes where a request came from, for the audit trail.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// LoginInput holds the credentials of a login attempt.
type LoginInput struct {
	Email    string
	Password string

	// OrganizationSlug narrows the lookup when the same email exists in
	// several organizations.
	OrganizationSlug string

	Client ClientInfo
}

// RegisterInput creates a new organization and its first administrator.
type RegisterInput struct {
	OrganizationName string

	// OrganizationSlug is derived from OrganizationName when empty.
	OrganizationSlug string

	Email    string
	Username string
	FullName string
	Password string

	Client ClientInfo
}

// ChangePasswordInput carries a password rotation for the calling identity.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string

	Client ClientInfo
}

// # Field Identifiers

const (
	FieldRefreshToken    = "refresh_token"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)

// expiresInSeconds renders a TTL the way OAuth clients expect it.
func expiresInSeconds(ttl time.Duration) int64 {
	return int64(ttl / time.Second)
}
