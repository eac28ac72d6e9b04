// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kbase/internal/platform/database/schema"
)

// PostgresRecorder implements [Recorder] on the system.auditlog table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a new PostgreSQL implementation of [Recorder].
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

var insertEntry = fmt.Sprintf(`
	INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	schema.SystemAuditLog.Table,
	schema.SystemAuditLog.ID, schema.SystemAuditLog.OrganizationID, schema.SystemAuditLog.ActorID,
	schema.SystemAuditLog.Action, schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.UserAgent,
	schema.SystemAuditLog.Metadata, schema.SystemAuditLog.CreatedAt,
)

/*
Record inserts a single audit entry.

Parameters:
  - ctx: context.Context
  - entry: Entry (ID and CreatedAt already set)

Returns:
  - error: Marshalling or execution failures
*/
func (recorder *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("audit_store_marshal_failed: %w", err)
	}

	_, err = recorder.pool.Exec(ctx, insertEntry,
		entry.ID,
		nullable(entry.OrganizationID),
		nullable(entry.ActorID),
		string(entry.Action),
		entry.IPAddress,
		entry.UserAgent,
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit_store_insert_failed: %w", err)
	}
	return nil
}

// nullable maps an empty id to SQL NULL.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}
