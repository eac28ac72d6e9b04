// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles administration of the identities within an organization.

Administrators list the members of their own organization, create new
identities and change a member's role or active flag.

# Architecture

  - Domain: Entities and persistence come from the identity package.
  - Security: Every route sits behind RequireRole(admin), and every operation is
    scoped to the caller's organization.
*/
package account

import (
	"github.com/taibuivan/kbase/internal/platform/sec"
	"github.com/taibuivan/kbase/internal/users/identity"
	"github.com/taibuivan/kbase/pkg/pagination"
)

// # Inputs

// CreateInput describes a new member of the caller's organization.
type CreateInput struct {
	Email    string
	Username string
	FullName string
	Password string

	// Role defaults to viewer when empty.
	Role sec.Role
}

// # Results

// Page is one page of organization members.
type Page struct {
	Members []*identity.Identity
	Meta    pagination.Meta
}
