// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a port nothing listens on, so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRevokedKey(t *testing.T) {
	assert.Equal(t, "auth:revoked:abc123", revokedKey("abc123"))
}

func TestRedisDenylist_RevokeSkipsWithoutTouchingRedis(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	denylist := NewRedisDenylist(unreachableClient(t))
	denylist.now = func() time.Time { return now }

	tests := []struct {
		name    string
		tokenID string
		until   time.Time
	}{
		{"empty id", "", now.Add(time.Hour)},
		{"expired", "expired", now.Add(-time.Second)},
		{"expiring now", "expiring", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := denylist.Revoke(context.Background(), tt.tokenID, tt.until)
			assert.NoError(t, err)
			assert.True(t, first)
		})
	}
}

func TestRedisDenylist_SurfacesRedisErrors(t *testing.T) {
	denylist := NewRedisDenylist(unreachableClient(t))

	first, err := denylist.Revoke(context.Background(), "live", time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.False(t, first)
	assert.Contains(t, err.Error(), "redis_denylist_revoke_failed")

	revoked, err := denylist.IsRevoked(context.Background(), "live")
	require.Error(t, err)
	assert.False(t, revoked)
	assert.Contains(t, err.Error(), "redis_denylist_lookup_failed")
}
