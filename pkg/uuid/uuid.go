// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the time-ordered identifiers used as primary keys.

Version 7 values sort by creation time, which keeps PostgreSQL B-tree
indexes compact.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	// entropy failure is an unrecoverable system-level error
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s parses as a UUID of any version.
//
// Repositories use it to turn malformed ids into a plain miss instead of a
// database cast error.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
