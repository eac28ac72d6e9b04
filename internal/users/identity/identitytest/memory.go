// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package identitytest provides an in-memory [identity.Repository] for tests.
package identitytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/pkg/pagination"
)

// Repository is a goroutine-safe in-memory [identity.Repository].
//
// Entities are copied on the way in and out, so callers cannot mutate stored
// state by accident.
type Repository struct {
	mu            sync.Mutex
	identities    map[string]identity.Identity
	organizations map[string]identity.Organization
	order         []string
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		identities:    make(map[string]identity.Identity),
		organizations: make(map[string]identity.Organization),
	}
}

// AddOrganization seeds an organization.
func (r *Repository) AddOrganization(org identity.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.organizations[org.ID] = org
}

// SetOrganizationActive toggles an organization, as an operator would.
func (r *Repository) SetOrganizationActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org := r.organizations[id]
	org.IsActive = active
	r.organizations[id] = org
}

// Get returns a copy of a stored identity, for assertions.
func (r *Repository) Get(id string) (identity.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.identities[id]
	return stored, ok
}

func (r *Repository) hydrate(stored identity.Identity) *identity.Identity {
	stored.OrganizationActive = r.organizations[stored.OrganizationID].IsActive
	return &stored
}

func (r *Repository) FindByID(_ context.Context, id string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return r.hydrate(stored), nil
}

func (r *Repository) FindByEmail(_ context.Context, email, organizationSlug string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = identity.NormalizeEmail(email)
	var matches []*identity.Identity
	for _, id := range r.order {
		stored := r.identities[id]
		if stored.Email != email {
			continue
		}
		if organizationSlug != "" && r.organizations[stored.OrganizationID].Slug != organizationSlug {
			continue
		}
		matches = append(matches, r.hydrate(stored))
	}

	switch len(matches) {
	case 0:
		return nil, identity.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, identity.ErrAmbiguous
	}
}

func (r *Repository) Create(_ context.Context, created *identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(created)
}

func (r *Repository) CreateWithOrganization(_ context.Context, org *identity.Organization, owner *identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.organizations {
		if existing.Slug == org.Slug {
			return identity.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	org.CreatedAt, org.UpdatedAt = now, now
	r.organizations[org.ID] = *org
	owner.OrganizationID = org.ID

	if err := r.insert(owner); err != nil {
		delete(r.organizations, org.ID)
		return err
	}
	return nil
}

// insert must be called with mu held.
func (r *Repository) insert(created *identity.Identity) error {
	created.Email = identity.NormalizeEmail(created.Email)
	for _, existing := range r.identities {
		if existing.OrganizationID != created.OrganizationID {
			continue
		}
		if existing.Email == created.Email || existing.Username == created.Username {
			return identity.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	created.CreatedAt, created.UpdatedAt = now, now
	created.OrganizationActive = r.organizations[created.OrganizationID].IsActive

	r.identities[created.ID] = *created
	r.order = append(r.order, created.ID)
	return nil
}

func (r *Repository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[id]
	if !ok {
		return identity.ErrNotFound
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = time.Now().UTC()
	r.identities[id] = stored
	return nil
}

func (r *Repository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[id]
	if !ok {
		return identity.ErrNotFound
	}
	at = at.UTC()
	stored.LastLoginAt = &at
	r.identities[id] = stored
	return nil
}

func (r *Repository) ListByOrganization(_ context.Context, organizationID string, page pagination.Params) ([]*identity.Identity, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var members []*identity.Identity
	for _, id := range r.order {
		if stored := r.identities[id]; stored.OrganizationID == organizationID {
			members = append(members, r.hydrate(stored))
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	total := len(members)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return members[start:end], total, nil
}

func (r *Repository) UpdateAccess(_ context.Context, organizationID, id string, update identity.AccessUpdate) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[id]
	if !ok || stored.OrganizationID != organizationID {
		return nil, identity.ErrNotFound
	}
	if update.Role != nil {
		stored.Role = *update.Role
	}
	if update.IsActive != nil {
		stored.IsActive = *update.IsActive
	}
	stored.UpdatedAt = time.Now().UTC()
	r.identities[id] = stored
	return r.hydrate(stored), nil
}

var _ identity.Repository = (*Repository)(nil)
