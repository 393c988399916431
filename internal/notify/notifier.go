// Package notify delivers patient-facing notifications emitted by the
// billing ledger.
package notify

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Notifier is the sink the ledger's event handlers deliver into.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, body, severity string) error
}

// Store persists notifications for later delivery to the patient's devices.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Notify inserts one notification row.
func (s *Store) Notify(ctx context.Context, userID int64, title, body, severity string) error {
	if s == nil {
		return errors.New("notification store not initialised")
	}
	if title == "" {
		return errors.New("notification requires a title")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO notifications (user_id, title, body, severity, created_at)
VALUES ($1, $2, $3, $4, NOW())`, userID, title, body, severity)
	return err
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount for notification bodies.
func FormatAmount(amount float64) string {
	return amountPrinter.Sprintf("$%.2f", amount)
}
