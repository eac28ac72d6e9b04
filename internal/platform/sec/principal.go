// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"time"
)

// # Authenticated Principal

// Principal is the verified caller attached to a request context.
//
// It is built from a verified access token plus the identity it names, after
// the identity has been confirmed active.
type Principal struct {
	UserID         string
	OrganizationID string
	Email          string
	Role           Role

	// TokenID and TokenExpiresAt describe the access token that authenticated
	// the request, so logout can revoke exactly that token.
	TokenID        string
	TokenExpiresAt time.Time
}

// Can reports whether the principal satisfies required under [Authorize].
// A nil principal never does.
func (p *Principal) Can(required Role) bool {
	if p == nil {
		return false
	}
	return Authorize(p.Role, required) == Allow
}

// # Revocation

// Denylist records revoked token ids until their natural expiry.
//
// Revoke must be atomic: first is true only for the one call that moved
// tokenID from live to revoked, so refresh tokens can be consumed exactly
// once under concurrency. Ids that need no entry (empty or already expired)
// report first as true.
//
// Implementations perform I/O; the verifier itself never consults one.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) (first bool, err error)
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
