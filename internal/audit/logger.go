// Package audit persists the activity trail written after every ledger
// mutation.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	ActorID      int64
	ActorRole    string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	At           time.Time
}

// occurredAt defaults an unset timestamp to now; a zero time.Time would
// otherwise be written as year 1, not NULL.
func (e Entry) occurredAt() time.Time {
	if e.At.IsZero() {
		return time.Now()
	}
	return e.At
}

// Logger writes entries into audit_logs.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Record persists the entry. Failures are reported to the caller, who logs
// and moves on; the financial mutation has already committed.
func (l *Logger) Record(ctx context.Context, e Entry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if e.Action == "" || e.ResourceType == "" || e.ResourceID == "" {
		return errors.New("audit entry requires action/resource_type/resource_id")
	}
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, actor_role, action, resource_type, resource_id, details, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ActorID, e.ActorRole, e.Action, e.ResourceType, e.ResourceID, detailsJSON, e.occurredAt())
	return err
}
