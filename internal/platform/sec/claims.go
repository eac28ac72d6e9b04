// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Types

// TokenType distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenType string

const (
	// TokenAccess authorizes individual API requests.
	TokenAccess TokenType = "access"

	// TokenRefresh is exchanged for a fresh access/refresh pair.
	TokenRefresh TokenType = "refresh"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	return t == TokenAccess || t == TokenRefresh
}

// maxAge is the absolute age ceiling enforced on top of the token's own expiry.
func (t TokenType) maxAge() time.Duration {
	if t == TokenRefresh {
		return MaxRefreshTokenAge
	}
	return MaxAccessTokenAge
}

// # Claim Names

// Wire names of the claims injected by [TokenCodec.Mint].
const (
	ClaimSubject   = "sub"
	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
	ClaimNotBefore = "nbf"
	ClaimType      = "type"
	ClaimTokenID   = "jti"
	ClaimFamily    = "token_family"
)

// requiredClaims must be present on every token accepted by [TokenVerifier].
var requiredClaims = []string{
	ClaimExpiresAt,
	ClaimIssuedAt,
	ClaimNotBefore,
	ClaimType,
	ClaimTokenID,
}

// # Limits

const (
	// MaxAccessTokenAge bounds how long after issuance an access token is honoured,
	// whatever its exp claim says.
	MaxAccessTokenAge = 24 * time.Hour

	// MaxRefreshTokenAge is the same ceiling for refresh tokens.
	MaxRefreshTokenAge = 30 * 24 * time.Hour

	// IssuedAtLeeway is the clock skew tolerated for an iat in the future.
	IssuedAtLeeway = time.Minute

	// tokenIDBytes gives jti 128 bits of entropy.
	tokenIDBytes = 16

	// familyIDBytes sizes the token_family identifier of refresh tokens.
	familyIDBytes = 8
)

// ErrInvalidToken is the single rejection returned by [TokenVerifier.Verify].
//
// Expired, forged, malformed and wrong-type tokens all map to this one value.
var ErrInvalidToken = errors.New("sec: invalid or expired token")

// # Claims

// Claims is the verified payload of a token.
//
// It holds the caller-supplied claims passed to [TokenCodec.Mint] together with
// the injected security claims. Numeric values decode as float64.
type Claims map[string]any

// Subject returns the sub claim (the identity id).
func (c Claims) Subject() string {
	return c.str(ClaimSubject)
}

// TokenID returns the jti claim.
func (c Claims) TokenID() string {
	return c.str(ClaimTokenID)
}

// Family returns the token_family claim, empty on access tokens.
func (c Claims) Family() string {
	return c.str(ClaimFamily)
}

// Type returns the type claim.
func (c Claims) Type() TokenType {
	return TokenType(c.str(ClaimType))
}

// ExpiresAt returns the exp claim, or the zero time if absent.
func (c Claims) ExpiresAt() time.Time {
	date, err := jwt.MapClaims(c).GetExpirationTime()
	return dateOrZero(date, err)
}

// IssuedAt returns the iat claim, or the zero time if absent.
func (c Claims) IssuedAt() time.Time {
	date, err := jwt.MapClaims(c).GetIssuedAt()
	return dateOrZero(date, err)
}

func (c Claims) str(name string) string {
	value, _ := c[name].(string)
	return value
}

func dateOrZero(date *jwt.NumericDate, err error) time.Time {
	if err != nil || date == nil {
		return time.Time{}
	}
	return date.Time.UTC()
}
