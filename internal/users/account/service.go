// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/kbase/internal/platform/apperr"
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/system/audit"
	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/pkg/pagination"
	"github.com/taibuivan/kbase/pkg/uuid"
)

// # Service Layer

// Service orchestrates identity administration.
type Service struct {
	identities identity.Repository
	hasher     *sec.PasswordHasher
	trail      *audit.Trail
	logger     *slog.Logger
}

// NewService constructs a new [Service]. trail may be nil.
func NewService(identities identity.Repository, hasher *sec.PasswordHasher, trail *audit.Trail, logger *slog.Logger) *Service {
	return &Service{
		identities: identities,
		hasher:     hasher,
		trail:      trail,
		logger:     logger,
	}
}

// List returns one page of the members of the admin's organization.
func (service *Service) List(ctx context.Context, admin *sec.Principal, page pagination.Params) (*Page, error) {
	members, total, err := service.identities.ListByOrganization(ctx, admin.OrganizationID, page)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}
	if members == nil {
		members = []*identity.Identity{}
	}

	return &Page{
		Members: members,
		Meta:    pagination.NewMeta(page.Page, page.Limit, total),
	}, nil
}

/*
Create adds a new identity to the admin's organization.

Parameters:
  - ctx: context.Context
  - admin: *sec.Principal
  - input: CreateInput

Returns:
  - *identity.Identity: The created identity
  - error: WeakPassword, ValidationError (unknown role), Conflict or storage failures
*/
func (service *Service) Create(ctx context.Context, admin *sec.Principal, input CreateInput) (*identity.Identity, error) {
	role := input.Role
	if role == "" {
		role = sec.RoleViewer
	}
	if !role.Valid() {
		return nil, apperr.ValidationError("Unknown role",
			apperr.FieldError{Field: identity.FieldRole, Message: "must be one of admin, editor, viewer"})
	}

	if ok, reason := sec.CheckStrength(input.Password); !ok {
		return nil, apperr.WeakPassword(reason)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	created := &identity.Identity{
		ID:             uuid.New(),
		OrganizationID: admin.OrganizationID,
		Email:          identity.NormalizeEmail(input.Email),
		Username:       input.Username,
		FullName:       input.FullName,
		PasswordHash:   hashedPassword,
		Role:           role,
		IsActive:       true,
	}

	if err := service.identities.Create(ctx, created); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return nil, apperr.Conflict("Email or username is already registered in this organization")
		}
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "identity_created",
		slog.String("identity_id", created.ID),
		slog.String("role", string(created.Role)),
	)
	service.trail.Record(ctx, audit.Entry{
		OrganizationID: admin.OrganizationID,
		ActorID:        admin.UserID,
		Action:         audit.ActionIdentityCreated,
		Metadata:       map[string]any{"identity_id": created.ID, "role": string(created.Role)},
	})

	return created, nil
}

/*
UpdateAccess changes the role or active flag of a member.

Description: Admins cannot demote or deactivate themselves, so an
organization always keeps at least the admin performing the change.

Parameters:
  - ctx: context.Context
  - admin: *sec.Principal
  - id: string (identity id)
  - update: identity.AccessUpdate

Returns:
  - *identity.Identity: The updated identity
  - error: NotFound (also for members of other organizations), Unprocessable or storage failures
*/
func (service *Service) UpdateAccess(ctx context.Context, admin *sec.Principal, id string, update identity.AccessUpdate) (*identity.Identity, error) {
	if update.Empty() {
		return nil, apperr.ValidationError("Nothing to update")
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, apperr.ValidationError("Unknown role",
			apperr.FieldError{Field: identity.FieldRole, Message: "must be one of admin, editor, viewer"})
	}

	if id == admin.UserID {
		if update.Role != nil && *update.Role != sec.RoleAdmin {
			return nil, apperr.Unprocessable("Administrators cannot change their own role")
		}
		if update.IsActive != nil && !*update.IsActive {
			return nil, apperr.Unprocessable("Administrators cannot deactivate themselves")
		}
	}

	updated, err := service.identities.UpdateAccess(ctx, admin.OrganizationID, id, update)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_update_access_failed: %w", err)
	}

	metadata := map[string]any{"identity_id": updated.ID}
	if update.Role != nil {
		metadata["role"] = string(*update.Role)
	}
	if update.IsActive != nil {
		metadata["is_active"] = *update.IsActive
	}
	service.trail.Record(ctx, audit.Entry{
		OrganizationID: admin.OrganizationID,
		ActorID:        admin.UserID,
		Action:         audit.ActionAccessChanged,
		Metadata:       metadata,
	})

	return updated, nil
}
