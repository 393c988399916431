package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository provides PostgreSQL backed persistence for the ledger.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a repository on the shared pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn against a repeatable-read transaction. Serialization and
// deadlock failures surface as ErrConflict for caller retry.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool})
	})
	return mapConflict(err)
}

func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case "23505": // unique_violation (invoice_number)
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

const invoiceColumns = `id, patient_id, doctor_id, appointment_id, invoice_number,
subtotal, tax_rate, tax_amount, discount_amount, total_amount, amount_paid, amount_due,
due_date, status, claim_id, claim_status, claim_approved_amount, claim_denial_reason,
notes, version, created_at, updated_at, issued_at, paid_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.DoctorID, &inv.AppointmentID, &inv.InvoiceNumber,
		&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.DiscountAmount, &inv.TotalAmount,
		&inv.AmountPaid, &inv.AmountDue,
		&inv.DueDate, &inv.Status,
		&inv.InsuranceClaim.ClaimID, &inv.InsuranceClaim.Status,
		&inv.InsuranceClaim.ApprovedAmount, &inv.InsuranceClaim.DenialReason,
		&inv.Notes, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt, &inv.IssuedAt, &inv.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) get(ctx context.Context, id int64, lock bool) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)
	if lock {
		query += " FOR UPDATE"
	}
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if inv.Items, err = r.listItems(ctx, id); err != nil {
		return nil, err
	}
	if inv.Payments, err = r.listPayments(ctx, id); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get returns the invoice with its items and payments.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the invoice row within the enclosing transaction.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return r.get(ctx, id, true)
}

func (r *PGRepository) listItems(ctx context.Context, invoiceID int64) ([]BillingItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, description, code, quantity, unit_price,
category, taxable, discount_amount, total_price, notes
FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillingItem
	for rows.Next() {
		var it BillingItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Code, &it.Quantity,
			&it.UnitPrice, &it.Category, &it.Taxable, &it.DiscountAmount, &it.TotalPrice, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepository) listPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, amount, method, status, transaction_id,
receipt_number, notes, processed_by, processed_at
FROM payments WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Status, &p.TransactionID,
			&p.ReceiptNumber, &p.Notes, &p.ProcessedBy, &p.ProcessedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// List returns invoices matching the filter plus the total match count.
// Items and payments are not hydrated on listings.
func (r *PGRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}
	if req.PatientID != nil {
		add("patient_id = $%d", *req.PatientID)
	}
	if req.DoctorID != nil {
		add("doctor_id = $%d", *req.DoctorID)
	}
	if req.Status != nil {
		add("status = $%d", *req.Status)
	}
	if req.DateFrom != nil {
		add("created_at >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("created_at <= $%d", *req.DateTo)
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

// Create inserts the invoice row and returns its id.
func (r *PGRepository) Create(ctx context.Context, inv *Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoices
(patient_id, doctor_id, appointment_id, invoice_number, subtotal, tax_rate, tax_amount,
 discount_amount, total_amount, amount_paid, amount_due, due_date, status,
 claim_status, notes, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,1,$16,$17)
RETURNING id`,
		inv.PatientID, inv.DoctorID, inv.AppointmentID, inv.InvoiceNumber,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.DiscountAmount, inv.TotalAmount,
		inv.AmountPaid, inv.AmountDue, inv.DueDate, inv.Status,
		inv.InsuranceClaim.Status, inv.Notes, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapConflict(err)
	}
	inv.Version = 1
	return id, nil
}

// Update writes derived fields with an optimistic version check.
func (r *PGRepository) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET
subtotal = $1, tax_rate = $2, tax_amount = $3, discount_amount = $4, total_amount = $5,
amount_paid = $6, amount_due = $7, due_date = $8, status = $9,
claim_id = $10, claim_status = $11, claim_approved_amount = $12, claim_denial_reason = $13,
notes = $14, updated_at = $15, issued_at = $16, paid_at = $17, version = version + 1
WHERE id = $18 AND version = $19`,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.DiscountAmount, inv.TotalAmount,
		inv.AmountPaid, inv.AmountDue, inv.DueDate, inv.Status,
		inv.InsuranceClaim.ClaimID, inv.InsuranceClaim.Status,
		inv.InsuranceClaim.ApprovedAmount, inv.InsuranceClaim.DenialReason,
		inv.Notes, inv.UpdatedAt, inv.IssuedAt, inv.PaidAt,
		inv.ID, inv.Version,
	)
	if err != nil {
		return mapConflict(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	inv.Version++
	return nil
}

// Delete removes the invoice; items and payments cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// ReplaceItems rewrites the invoice's line items.
func (r *PGRepository) ReplaceItems(ctx context.Context, invoiceID int64, items []BillingItem) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return err
	}
	for i := range items {
		err := r.db.QueryRow(ctx, `INSERT INTO invoice_items
(invoice_id, description, code, quantity, unit_price, category, taxable, discount_amount, total_price, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
			invoiceID, items[i].Description, items[i].Code, items[i].Quantity, items[i].UnitPrice,
			items[i].Category, items[i].Taxable, items[i].DiscountAmount, items[i].TotalPrice, items[i].Notes,
		).Scan(&items[i].ID)
		if err != nil {
			return err
		}
		items[i].InvoiceID = invoiceID
	}
	return nil
}

// InsertPayment appends a payment row.
func (r *PGRepository) InsertPayment(ctx context.Context, p *Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO payments
(invoice_id, amount, method, status, transaction_id, receipt_number, notes, processed_by, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		p.InvoiceID, p.Amount, p.Method, p.Status, p.TransactionID,
		p.ReceiptNumber, p.Notes, p.ProcessedBy, p.ProcessedAt,
	).Scan(&id)
	return id, err
}

// UpdatePayment writes a payment's status and notes. Amount, method and
// receipt are immutable once recorded.
func (r *PGRepository) UpdatePayment(ctx context.Context, p Payment) error {
	tag, err := r.db.Exec(ctx, `UPDATE payments SET status = $1, notes = $2 WHERE id = $3 AND invoice_id = $4`,
		p.Status, p.Notes, p.ID, p.InvoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// NextInvoiceNumber advances the per-day counter row atomically, so two
// concurrent creators can never observe the same sequence value.
func (r *PGRepository) NextInvoiceNumber(ctx context.Context, day time.Time) (string, error) {
	utcDay := day.UTC().Truncate(24 * time.Hour)
	var seq int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_sequences (day, last_seq)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET last_seq = invoice_sequences.last_seq + 1
RETURNING last_seq`, utcDay).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(utcDay, seq), nil
}

// ListDueCandidates returns invoices eligible for the overdue scan.
func (r *PGRepository) ListDueCandidates(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM invoices
WHERE due_date < $1 AND status IN ('ISSUED', 'PARTIALLY_PAID') ORDER BY due_date`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
