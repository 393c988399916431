package billing

import (
	"context"
	"time"
)

// Repository defines data access for the invoice ledger. Mutating service
// operations run inside WithTx so the guard is validated against the row
// read in the same transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Get(ctx context.Context, id int64) (*Invoice, error)
	// GetForUpdate locks the invoice row for the duration of the enclosing
	// transaction.
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv *Invoice) (int64, error)
	// Update writes derived fields, status, claim and timestamps. It bumps
	// the invoice version and returns ErrConflict when the stored version no
	// longer matches inv.Version.
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id int64) error

	ReplaceItems(ctx context.Context, invoiceID int64, items []BillingItem) error
	InsertPayment(ctx context.Context, p *Payment) (int64, error)
	UpdatePayment(ctx context.Context, p Payment) error

	// NextInvoiceNumber atomically advances the per-day sequence and returns
	// the formatted invoice number for that day.
	NextInvoiceNumber(ctx context.Context, day time.Time) (string, error)

	// ListDueCandidates returns ids of issued or partially paid invoices
	// whose due date has passed as of the given instant.
	ListDueCandidates(ctx context.Context, asOf time.Time) ([]int64, error)
}
