package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/billing"
)

// Repository defines the read queries backing the reporting surface.
type Repository interface {
	PeriodStats(ctx context.Context, from, to time.Time) (PeriodStats, error)
	PatientSummary(ctx context.Context, patientID int64) (PatientSummary, error)
	ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error)
	InsurancePending(ctx context.Context) (InsurancePending, error)
}

// PGRepository provides PostgreSQL backed report queries.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// PeriodStats aggregates invoices created inside [from, to].
func (r *PGRepository) PeriodStats(ctx context.Context, from, to time.Time) (PeriodStats, error) {
	stats := PeriodStats{From: from, To: to, CountsByStatus: map[billing.InvoiceStatus]int{}}

	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COALESCE(SUM(total_amount), 0),
COALESCE(SUM(amount_paid), 0),
COALESCE(SUM(amount_due) FILTER (WHERE status NOT IN ('CANCELLED', 'REFUNDED')), 0),
COALESCE(AVG(total_amount), 0)
FROM invoices WHERE created_at >= $1 AND created_at <= $2`, from, to).Scan(
		&stats.InvoiceCount, &stats.TotalInvoiced, &stats.TotalPaid,
		&stats.TotalOutstanding, &stats.AverageInvoice,
	)
	if err != nil {
		return PeriodStats{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM invoices
WHERE created_at >= $1 AND created_at <= $2 GROUP BY status`, from, to)
	if err != nil {
		return PeriodStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status billing.InvoiceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return PeriodStats{}, err
		}
		stats.CountsByStatus[status] = count
	}
	return stats, rows.Err()
}

// PatientSummary aggregates one patient's invoices.
func (r *PGRepository) PatientSummary(ctx context.Context, patientID int64) (PatientSummary, error) {
	summary := PatientSummary{PatientID: patientID}
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COALESCE(SUM(total_amount), 0),
COALESCE(SUM(amount_paid), 0),
COALESCE(SUM(amount_due) FILTER (WHERE status NOT IN ('CANCELLED', 'REFUNDED')), 0),
MAX(created_at)
FROM invoices WHERE patient_id = $1`, patientID).Scan(
		&summary.InvoiceCount, &summary.TotalBilled, &summary.TotalPaid,
		&summary.TotalOutstanding, &summary.LastInvoiceAt,
	)
	if err != nil {
		return PatientSummary{}, err
	}
	return summary, nil
}

// ListOutstanding returns unsettled issued, partially paid and overdue
// invoices ordered by due date.
func (r *PGRepository) ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_number, patient_id, status, due_date, amount_due
FROM invoices
WHERE status IN ('ISSUED', 'PARTIALLY_PAID', 'OVERDUE') AND amount_due > 0
ORDER BY due_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutstandingInvoice
	for rows.Next() {
		var o OutstandingInvoice
		if err := rows.Scan(&o.InvoiceID, &o.InvoiceNumber, &o.PatientID, &o.Status, &o.DueDate, &o.AmountDue); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsurancePending summarises claims still awaiting resolution.
func (r *PGRepository) InsurancePending(ctx context.Context) (InsurancePending, error) {
	var pending InsurancePending
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(amount_due), 0)
FROM invoices WHERE claim_status IN ('SUBMITTED', 'IN_PROGRESS')`).Scan(
		&pending.ClaimCount, &pending.PendingAmount,
	)
	if err != nil {
		return InsurancePending{}, err
	}
	return pending, nil
}
