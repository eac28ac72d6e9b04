// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity defines the tenant-scoped user accounts and their organizations.

# Architecture

Entities here carry no behaviour beyond small invariants; authentication and
administration live in the auth and account packages, which depend on the
[Repository] contract declared in store.go.
*/
package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/taibuivan/kbase/internal/platform/sec"
)

// # Domain Entities

// Identity is an account belonging to exactly one organization.
type Identity struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name,omitempty"`
	PasswordHash   string     `json:"-"`
	Role           sec.Role   `json:"role"`
	IsActive       bool       `json:"is_active"`
	IsVerified     bool       `json:"is_verified"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// OrganizationActive mirrors the owning organization's flag, loaded by join.
	OrganizationActive bool `json:"-"`
}

// Active reports whether the identity may authenticate: both the account and
// its organization must be enabled. A nil identity is never active.
func (identity *Identity) Active() bool {
	return identity != nil && identity.IsActive && identity.OrganizationActive
}

// Organization is a tenant. Identities and all content are scoped to one.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Access Changes

// AccessUpdate carries the administrator-controlled fields of an identity.
// Nil fields are left unchanged.
type AccessUpdate struct {
	Role     *sec.Role
	IsActive *bool
}

// Empty reports whether the update changes nothing.
func (update AccessUpdate) Empty() bool {
	return update.Role == nil && update.IsActive == nil
}

// # Errors

var (
	// ErrNotFound is returned when no identity matches a lookup.
	ErrNotFound = errors.New("identity: not found")

	// ErrAmbiguous is returned by an email lookup without organization scope
	// when the same email exists in several organizations.
	ErrAmbiguous = errors.New("identity: email matches several organizations")

	// ErrDuplicate is returned when email or username is already taken in the
	// organization, or an organization slug is already in use.
	ErrDuplicate = errors.New("identity: already exists")
)

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Field Identifiers

// Field names shared by validation and JSON payloads.
const (
	FieldEmail            = "email"
	FieldUsername         = "username"
	FieldFullName         = "full_name"
	FieldPassword         = "password"
	FieldRole             = "role"
	FieldIsActive         = "is_active"
	FieldOrganizationName = "organization_name"
	FieldOrganizationSlug = "organization_slug"
)
