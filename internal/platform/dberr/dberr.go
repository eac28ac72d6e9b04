// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr translates pgx errors into the sentinel errors the
// repositories expose, so services never import pgx to inspect a failure.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinels chooses what each recognised database condition becomes.
// A nil field leaves that condition wrapped like any other failure.
type Sentinels struct {
	NotFound  error
	Duplicate error
}

// Translate maps err for a repository operation named action.
//
// No rows becomes s.NotFound, a unique violation becomes s.Duplicate, and
// anything else is wrapped as "action: err".
func Translate(err error, action string, s Sentinels) error {
	switch {
	case err == nil:
		return nil
	case s.NotFound != nil && errors.Is(err, pgx.ErrNoRows):
		return s.NotFound
	case s.Duplicate != nil && IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", s.Duplicate, constraintName(err))
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}

func constraintName(err error) string {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.ConstraintName != "" {
		return pgError.ConstraintName
	}
	return "unique violation"
}
