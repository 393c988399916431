package billing

import (
	"context"
	"time"
)

// Event types emitted after a committed ledger mutation.
const (
	EventInvoiceCreated   = "invoice.created"
	EventInvoiceIssued    = "invoice.issued"
	EventInvoiceUpdated   = "invoice.updated"
	EventInvoiceCancelled = "invoice.cancelled"
	EventInvoiceOverdue   = "invoice.overdue"
	EventPaymentRecorded  = "payment.recorded"
	EventPaymentVoided    = "payment.voided"
	EventClaimSubmitted   = "claim.submitted"
	EventClaimResolved    = "claim.resolved"
)

// Notification severities carried on events.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityError   = "error"
)

// Event describes a committed ledger mutation. Notification and audit
// handlers consume events independently; their failure never rolls back the
// financial write.
type Event struct {
	Type          string         `json:"type"`
	InvoiceID     int64          `json:"invoice_id"`
	InvoiceNumber string         `json:"invoice_number"`
	PatientID     int64          `json:"patient_id"`
	ActorID       int64          `json:"actor_id"`
	Severity      string         `json:"severity"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Detail        map[string]any `json:"detail,omitempty"`
}

// Publisher delivers events to downstream handlers. Publish failures are
// logged by the caller, never returned to the API client.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
