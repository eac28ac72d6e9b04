// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"time"

	"github.com/taibuivan/kbase/pkg/pagination"
)

// # Identity Data Access

// Repository defines the data access contract for identities and organizations.
type Repository interface {

	/*
		FindByID returns the identity with the given ID.

		Returns:
		  - *Identity: Hydrated entity, including OrganizationActive
		  - error: [ErrNotFound] or storage failures
	*/
	FindByID(ctx context.Context, id string) (*Identity, error)

	/*
		FindByEmail returns the identity with the given email.

		Parameters:
		  - ctx: context.Context
		  - email: string (normalized with [NormalizeEmail])
		  - organizationSlug: string (empty searches every organization)

		Returns:
		  - *Identity: Hydrated entity
		  - error: [ErrNotFound], [ErrAmbiguous] or storage failures
	*/
	FindByEmail(ctx context.Context, email, organizationSlug string) (*Identity, error)

	/*
		Create persists a new identity in an existing organization.

		Returns:
		  - error: [ErrDuplicate] or storage failures
	*/
	Create(ctx context.Context, identity *Identity) error

	/*
		CreateWithOrganization persists a new organization and its first
		identity atomically.

		Returns:
		  - error: [ErrDuplicate] (slug taken) or storage failures
	*/
	CreateWithOrganization(ctx context.Context, organization *Organization, owner *Identity) error

	// UpdatePassword replaces only the identity's password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	/*
		ListByOrganization returns one page of identities, oldest first.

		Returns:
		  - []*Identity: The page
		  - int: Total identities in the organization
		  - error: Storage failures
	*/
	ListByOrganization(ctx context.Context, organizationID string, page pagination.Params) ([]*Identity, int, error)

	/*
		UpdateAccess applies an [AccessUpdate] to an identity of the given
		organization and returns the updated entity.

		Returns:
		  - error: [ErrNotFound] when the identity is missing or belongs to
		    another organization
	*/
	UpdateAccess(ctx context.Context, organizationID, id string, update AccessUpdate) (*Identity, error)
}
