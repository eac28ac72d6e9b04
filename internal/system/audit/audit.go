// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit records security-relevant events such as logins and password changes.

# Architecture

Callers describe what happened with an [Entry] and hand it to a [Recorder].
Recording is best-effort: [Trail] logs storage failures instead of returning
them, so an unavailable audit table never blocks authentication.
*/
package audit

import (
	"context"
	"log/slog"
	"maps"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taibuivan/kbase/internal/platform/ctxutil"
)

// # Actions

// Action names an audited event.
type Action string

const (
	ActionLoginSuccess    Action = "login_success"
	ActionLoginFailure    Action = "login_failure"
	ActionTokenRefresh    Action = "token_refresh"
	ActionLogout          Action = "logout"
	ActionIdentityCreated Action = "identity_created"
	ActionAccessChanged   Action = "access_changed"
	ActionPasswordChanged Action = "password_changed"
)

// # Entries

// Entry is a single audit record.
//
// OrganizationID and ActorID are empty when the event cannot be attributed,
// e.g. a login attempt for an unknown email.
type Entry struct {
	ID             string
	OrganizationID string
	ActorID        string
	Action         Action
	IPAddress      string
	UserAgent      string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a lexicographically sortable entry identifier.
func NewID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// # Trail

// Trail stamps entries and forwards them to a [Recorder], logging failures.
// A nil *Trail discards everything.
type Trail struct {
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewTrail wraps recorder.
func NewTrail(recorder Recorder, logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{recorder: recorder, logger: logger, now: time.Now}
}

// metadataRequestID ties an entry to the request log lines of the same call.
const metadataRequestID = "request_id"

// Record fills ID and CreatedAt when missing, tags the entry with the
// request ID from ctx, and stores it.
func (trail *Trail) Record(ctx context.Context, entry Entry) {
	if trail == nil || trail.recorder == nil {
		return
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = trail.now().UTC()
	}
	if entry.ID == "" {
		entry.ID = NewID(entry.CreatedAt)
	}
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		metadata := make(map[string]any, len(entry.Metadata)+1)
		maps.Copy(metadata, entry.Metadata)
		metadata[metadataRequestID] = requestID
		entry.Metadata = metadata
	}

	if err := trail.recorder.Record(ctx, entry); err != nil {
		trail.logger.WarnContext(ctx, "audit_record_failed",
			slog.String("action", string(entry.Action)),
			slog.String("actor_id", entry.ActorID),
			slog.Any("error", err),
		)
	}
}
