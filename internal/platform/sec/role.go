// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// Role represents the authorization level granted to an identity.
type Role string

const (
	// Full control over the organization, including its members
	RoleAdmin Role = "admin"

	// Can create and modify knowledge items
	RoleEditor Role = "editor"

	// Read-only access; default for new identities
	RoleViewer Role = "viewer"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	return role, role.Valid()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.level() > 0
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
// Unknown roles on either side never satisfy the check.
func (r Role) AtLeast(target Role) bool {
	if !r.Valid() || !target.Valid() {
		return false
	}
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleEditor:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}
