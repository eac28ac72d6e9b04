// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kbase/internal/platform/database/schema"
	"github.com/taibuivan/kbase/internal/platform/dberr"
	"github.com/taibuivan/kbase/pkg/pagination"
	"github.com/taibuivan/kbase/pkg/uuid"
)

// # Identity Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	account      = schema.UserAccount
	organization = schema.UserOrganization
)

// identitySelect is the shared projection joined with the owning organization.
var identitySelect = fmt.Sprintf(`
	SELECT a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, o.%s
	FROM %s a
	JOIN %s o ON o.%s = a.%s`,
	account.ID, account.OrganizationID, account.Email, account.Username, account.FullName,
	account.Password, account.Role, account.IsActive, account.IsVerified, account.LastLoginAt,
	account.CreatedAt, account.UpdatedAt, organization.IsActive,
	account.Table, organization.Table, organization.ID, account.OrganizationID,
)

func scanIdentity(row pgx.Row) (*Identity, error) {
	identity := &Identity{}
	err := row.Scan(
		&identity.ID,
		&identity.OrganizationID,
		&identity.Email,
		&identity.Username,
		&identity.FullName,
		&identity.PasswordHash,
		&identity.Role,
		&identity.IsActive,
		&identity.IsVerified,
		&identity.LastLoginAt,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&identity.OrganizationActive,
	)
	return identity, err
}

// FindByID retrieves an identity by primary key.
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Identity, error) {
	if !uuid.Valid(id) {
		return nil, ErrNotFound
	}
	query := identitySelect + fmt.Sprintf(` WHERE a.%s = $1`, account.ID)

	identity, err := scanIdentity(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Translate(err, "postgres_identity_find_by_id_failed", dberr.Sentinels{NotFound: ErrNotFound})
	}
	return identity, nil
}

/*
FindByEmail retrieves an identity by email, optionally scoped to an organization slug.

Description: Without a slug, at most two rows are read so that an email present
in several organizations is reported as [ErrAmbiguous] rather than resolved
arbitrarily.

Parameters:
  - ctx: context.Context
  - email: string
  - organizationSlug: string

Returns:
  - *Identity: Hydrated entity
  - error: ErrNotFound, ErrAmbiguous or database errors
*/
func (repository *PostgresRepository) FindByEmail(ctx context.Context, email, organizationSlug string) (*Identity, error) {
	query := identitySelect + fmt.Sprintf(` WHERE lower(a.%s) = $1`, account.Email)
	args := []any{NormalizeEmail(email)}

	if organizationSlug != "" {
		query += fmt.Sprintf(` AND o.%s = $2`, organization.Slug)
		args = append(args, organizationSlug)
	}
	query += ` LIMIT 2`

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres_identity_find_by_email_failed: %w", err)
	}
	defer rows.Close()

	var matches []*Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_identity_scan_failed: %w", err)
		}
		matches = append(matches, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_identity_find_by_email_failed: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// Create inserts a new identity row.
func (repository *PostgresRepository) Create(ctx context.Context, identity *Identity) error {
	return insertIdentity(ctx, repository.pool, identity)
}

/*
CreateWithOrganization inserts an organization and its owner in one transaction.

Parameters:
  - ctx: context.Context
  - org: *Organization
  - owner: *Identity (OrganizationID is set from org)

Returns:
  - error: ErrDuplicate when the slug is taken, or database errors
*/
func (repository *PostgresRepository) CreateWithOrganization(ctx context.Context, org *Organization, owner *Identity) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6)`,
		organization.Table, organization.ID, organization.Name, organization.Slug,
		organization.IsActive, organization.CreatedAt, organization.UpdatedAt)

	now := time.Now().UTC()
	org.CreatedAt, org.UpdatedAt = now, now
	owner.OrganizationID = org.ID

	return pgx.BeginFunc(ctx, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, org.ID, org.Name, org.Slug, org.IsActive, org.CreatedAt, org.UpdatedAt); err != nil {
			return dberr.Translate(err, "postgres_organization_create_failed", dberr.Sentinels{Duplicate: ErrDuplicate})
		}
		return insertIdentity(ctx, tx, owner)
	})
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertIdentity inserts identity and reads back its organization's active flag.
func insertIdentity(ctx context.Context, db queryRower, identity *Identity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING (SELECT %s FROM %s WHERE %s = $2)`,
		account.Table,
		account.ID, account.OrganizationID, account.Email, account.Username, account.FullName,
		account.Password, account.Role, account.IsActive, account.IsVerified,
		account.CreatedAt, account.UpdatedAt,
		organization.IsActive, organization.Table, organization.ID,
	)

	now := time.Now().UTC()
	identity.Email = NormalizeEmail(identity.Email)
	identity.CreatedAt, identity.UpdatedAt = now, now

	err := db.QueryRow(ctx, query,
		identity.ID,
		identity.OrganizationID,
		identity.Email,
		identity.Username,
		identity.FullName,
		identity.PasswordHash,
		identity.Role,
		identity.IsActive,
		identity.IsVerified,
		identity.CreatedAt,
		identity.UpdatedAt,
	).Scan(&identity.OrganizationActive)
	return dberr.Translate(err, "postgres_identity_create_failed", dberr.Sentinels{Duplicate: ErrDuplicate})
}

// UpdatePassword replaces only the password hash.
func (repository *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if !uuid.Valid(id) {
		return ErrNotFound
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		account.Table, account.Password, account.UpdatedAt, account.ID)

	tag, err := repository.pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres_identity_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps lastloginat.
func (repository *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		account.Table, account.LastLoginAt, account.ID)

	if _, err := repository.pool.Exec(ctx, query, id, at.UTC()); err != nil {
		return fmt.Errorf("postgres_identity_touch_last_login_failed: %w", err)
	}
	return nil
}

// ListByOrganization returns one page of an organization's identities and the total count.
func (repository *PostgresRepository) ListByOrganization(ctx context.Context, organizationID string, page pagination.Params) ([]*Identity, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, account.Table, account.OrganizationID)

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery, organizationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_identity_count_failed: %w", err)
	}

	query := identitySelect + fmt.Sprintf(` WHERE a.%s = $1 ORDER BY a.%s ASC, a.%s ASC LIMIT $2 OFFSET $3`,
		account.OrganizationID, account.CreatedAt, account.ID)

	rows, err := repository.pool.Query(ctx, query, organizationID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_identity_list_failed: %w", err)
	}
	defer rows.Close()

	identities := make([]*Identity, 0, page.Limit)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_identity_scan_failed: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_identity_list_failed: %w", err)
	}

	return identities, total, nil
}

/*
UpdateAccess changes role and/or active flag of an identity in organizationID.

Parameters:
  - ctx: context.Context
  - organizationID: string (the caller's organization)
  - id: string
  - update: AccessUpdate

Returns:
  - *Identity: The updated entity
  - error: ErrNotFound for a missing or foreign identity
*/
func (repository *PostgresRepository) UpdateAccess(ctx context.Context, organizationID, id string, update AccessUpdate) (*Identity, error) {
	if !uuid.Valid(id) {
		return nil, ErrNotFound
	}
	assignments := []string{fmt.Sprintf("%s = $3", account.UpdatedAt)}
	args := []any{id, organizationID, time.Now().UTC()}

	if update.Role != nil {
		args = append(args, string(*update.Role))
		assignments = append(assignments, fmt.Sprintf("%s = $%d", account.Role, len(args)))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", account.IsActive, len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND %s = $2`,
		account.Table, strings.Join(assignments, ", "), account.ID, account.OrganizationID)

	tag, err := repository.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres_identity_update_access_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return repository.FindByID(ctx, id)
}
