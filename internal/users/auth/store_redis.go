// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kbase/internal/platform/constants"
	"github.com/taibuivan/kbase/internal/platform/sec"
)

// # Revocation Denylist

// RedisDenylist implements [sec.Denylist] with one expiring key per revoked token.
type RedisDenylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisDenylist creates a new Redis-backed [sec.Denylist].
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func revokedKey(tokenID string) string {
	return constants.RedisPrefixRevoked + tokenID
}

/*
Revoke denylists tokenID until the token would have expired anyway.

Parameters:
  - ctx: context.Context
  - tokenID: string (jti claim)
  - until: time.Time (exp claim)

Returns:
  - bool: true when this call revoked tokenID (SET NX won)
  - error: Execution errors
*/
func (denylist *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	if tokenID == "" {
		return true, nil
	}

	// An already expired token cannot be replayed; nothing to store.
	ttl := until.Sub(denylist.now())
	if ttl <= 0 {
		return true, nil
	}

	first, err := denylist.client.SetNX(ctx, revokedKey(tokenID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_revoke_failed: %w", err)
	}
	return first, nil
}

// IsRevoked reports whether tokenID has been revoked and not yet expired.
func (denylist *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := denylist.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_lookup_failed: %w", err)
	}
	return count > 0, nil
}

var _ sec.Denylist = (*RedisDenylist)(nil)
