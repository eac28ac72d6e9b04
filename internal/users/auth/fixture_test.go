// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/kbase/internal/platform/metrics"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/system/audit"
	"github.com/taibuivan/kbase/internal/users/auth"
	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/internal/users/identity/identitytest"
	"github.com/taibuivan/kbase/pkg/slice"
)

const (
	testPassword = "Sup3r$ecret!"
	aliceID      = "0190a000-0000-7000-8000-000000000001"
	orgID        = "0190a000-0000-7000-8000-0000000000a1"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memoryDenylist is a goroutine-safe [sec.Denylist] for tests. latency is
// slept outside the lock on every call to mimic a network round trip.
type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
	latency time.Duration
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{revoked: make(map[string]time.Time)}
}

func (d *memoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) (bool, error) {
	time.Sleep(d.latency)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if _, ok := d.revoked[tokenID]; ok {
		return false, nil
	}
	d.revoked[tokenID] = until
	return true, nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	time.Sleep(d.latency)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

func (d *memoryDenylist) fail() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = errors.New("redis: connection refused")
}

// memoryRecorder captures audit entries.
type memoryRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memoryRecorder) Record(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slice.Map(r.entries, func(entry audit.Entry) audit.Action { return entry.Action })
}

type fixture struct {
	service    *auth.Service
	repository *identitytest.Repository
	codec      *sec.TokenCodec
	verifier   *sec.TokenVerifier
	hasher     *sec.PasswordHasher
	denylist   *memoryDenylist
	recorder   *memoryRecorder
}

// newFixture builds a service over an in-memory repository seeded with one
// active admin, alice@example.com, in organization "acme".
func newFixture(t *testing.T, withDenylist bool) *fixture {
	t.Helper()

	cfg := sec.TokenConfig{
		Secret:     "test-secret-with-enough-entropy",
		Algorithm:  "HS256",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	codec, err := sec.NewTokenCodec(cfg)
	require.NoError(t, err)
	verifier, err := sec.NewTokenVerifier(cfg)
	require.NoError(t, err)

	hasher := sec.NewPasswordHasher(bcrypt.MinCost)
	repository := identitytest.NewRepository()
	repository.AddOrganization(identity.Organization{ID: orgID, Name: "Acme", Slug: "acme", IsActive: true})

	hashed, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	require.NoError(t, repository.Create(context.Background(), &identity.Identity{
		ID:             aliceID,
		OrganizationID: orgID,
		Email:          "alice@example.com",
		Username:       "alice",
		PasswordHash:   hashed,
		Role:           sec.RoleAdmin,
		IsActive:       true,
	}))

	f := &fixture{
		repository: repository,
		codec:      codec,
		verifier:   verifier,
		hasher:     hasher,
		recorder:   &memoryRecorder{},
	}

	opts := []auth.Option{
		auth.WithMetrics(metrics.New(prometheus.NewRegistry())),
		auth.WithTrail(audit.NewTrail(f.recorder, discardLogger)),
	}
	if withDenylist {
		f.denylist = newMemoryDenylist()
		opts = append(opts, auth.WithDenylist(f.denylist))
	}

	f.service = auth.NewService(repository, hasher, codec, verifier, discardLogger, opts...)
	return f
}

// addIdentity seeds another identity with testPassword.
func (f *fixture) addIdentity(t *testing.T, seeded identity.Identity) {
	t.Helper()
	hashed, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)
	seeded.PasswordHash = hashed
	require.NoError(t, f.repository.Create(context.Background(), &seeded))
}

func (f *fixture) login(t *testing.T) *auth.Session {
	t.Helper()
	session, err := f.service.Login(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: testPassword})
	require.NoError(t, err)
	return session
}
