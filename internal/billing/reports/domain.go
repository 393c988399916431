// Package reports provides read-only aggregates over the invoice ledger
// for external dashboards. It never mutates ledger state and returns zeroed
// aggregates for empty result sets.
package reports

import (
	"time"

	"github.com/clinicore/clinicore/internal/billing"
)

// PeriodStats summarises ledger activity inside a date range.
type PeriodStats struct {
	From             time.Time                     `json:"from"`
	To               time.Time                     `json:"to"`
	InvoiceCount     int                           `json:"invoice_count"`
	TotalInvoiced    float64                       `json:"total_invoiced"`
	TotalPaid        float64                       `json:"total_paid"`
	TotalOutstanding float64                       `json:"total_outstanding"`
	AverageInvoice   float64                       `json:"average_invoice"`
	CountsByStatus   map[billing.InvoiceStatus]int `json:"counts_by_status"`
}

// PatientSummary aggregates one patient's billing history.
type PatientSummary struct {
	PatientID        int64      `json:"patient_id"`
	InvoiceCount     int        `json:"invoice_count"`
	TotalBilled      float64    `json:"total_billed"`
	TotalPaid        float64    `json:"total_paid"`
	TotalOutstanding float64    `json:"total_outstanding"`
	LastInvoiceAt    *time.Time `json:"last_invoice_at,omitempty"`
}

// OutstandingInvoice is one unsettled invoice row used for the overdue list
// and aging buckets.
type OutstandingInvoice struct {
	InvoiceID     int64                 `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	PatientID     int64                 `json:"patient_id"`
	Status        billing.InvoiceStatus `json:"status"`
	DueDate       time.Time             `json:"due_date"`
	AmountDue     float64               `json:"amount_due"`
}

// InsurancePending summarises unresolved claims.
type InsurancePending struct {
	ClaimCount    int     `json:"claim_count"`
	PendingAmount float64 `json:"pending_amount"`
}

// AgingBuckets groups outstanding balances by days past due.
type AgingBuckets struct {
	Current   float64 `json:"current"`
	Bucket30  float64 `json:"bucket_30"`
	Bucket60  float64 `json:"bucket_60"`
	Bucket90  float64 `json:"bucket_90"`
	Bucket120 float64 `json:"bucket_120"`
}
