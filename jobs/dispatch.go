package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/clinicore/clinicore/internal/audit"
	"github.com/clinicore/clinicore/internal/billing"
	"github.com/clinicore/clinicore/internal/billing/reports"
	"github.com/clinicore/clinicore/internal/notify"
)

// Dispatcher consumes ledger events off the queue and applies their side
// effects: notifications, audit records and report cache invalidation.
type Dispatcher struct {
	notifier notify.Notifier
	audit    AuditSink
	reports  *reports.Cache
	logger   *slog.Logger
}

// AuditSink is the subset of the audit logger the dispatcher needs.
type AuditSink interface {
	Record(ctx context.Context, e audit.Entry) error
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(notifier notify.Notifier, audit AuditSink, reportsCache *reports.Cache, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, audit: audit, reports: reportsCache, logger: logger}
}

// HandleNotify processes TaskTypeNotify tasks.
func (d *Dispatcher) HandleNotify(ctx context.Context, t *asynq.Task) error {
	var payload EventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	evt := payload.Event
	title, body := composeNotification(evt)
	if title == "" {
		return nil
	}
	if err := d.notifier.Notify(ctx, evt.PatientID, title, body, evt.Severity); err != nil {
		return fmt.Errorf("notify %s invoice=%d: %w", evt.Type, evt.InvoiceID, err)
	}
	if d.reports != nil {
		if err := d.reports.Invalidate(ctx); err != nil {
			d.logger.Warn("report cache invalidation failed", slog.Any("error", err))
		}
	}
	return nil
}

// HandleAudit processes TaskTypeAudit tasks.
func (d *Dispatcher) HandleAudit(ctx context.Context, t *asynq.Task) error {
	var payload EventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	evt := payload.Event
	entry := audit.Entry{
		ActorID:      evt.ActorID,
		ActorRole:    "staff",
		Action:       evt.Type,
		ResourceType: "invoice",
		ResourceID:   strconv.FormatInt(evt.InvoiceID, 10),
		Details:      evt.Detail,
		At:           evt.OccurredAt,
	}
	if err := d.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit %s invoice=%d: %w", evt.Type, evt.InvoiceID, err)
	}
	return nil
}

func composeNotification(evt billing.Event) (title, body string) {
	number := evt.InvoiceNumber
	if number == "" {
		number = "#" + strconv.FormatInt(evt.InvoiceID, 10)
	}
	switch evt.Type {
	case billing.EventInvoiceCreated:
		return "Invoice created", "Invoice " + number + " has been created for your recent visit."
	case billing.EventInvoiceIssued:
		return "Invoice issued", "Invoice " + number + " is now due. Total: " + notify.FormatAmount(detailAmount(evt, "total_amount")) + "."
	case billing.EventInvoiceUpdated:
		return "Invoice updated", "Invoice " + number + " has been updated."
	case billing.EventInvoiceCancelled:
		return "Invoice cancelled", "Invoice " + number + " has been cancelled."
	case billing.EventInvoiceOverdue:
		return "Invoice overdue", "Invoice " + number + " is past its due date. Outstanding: " + notify.FormatAmount(detailAmount(evt, "amount_due")) + "."
	case billing.EventPaymentRecorded:
		return "Payment received", "We received " + notify.FormatAmount(detailAmount(evt, "amount")) + " towards invoice " + number + ". Thank you."
	case billing.EventPaymentVoided:
		return "Payment voided", "A payment of " + notify.FormatAmount(detailAmount(evt, "amount")) + " on invoice " + number + " was voided."
	case billing.EventClaimSubmitted:
		return "Insurance claim submitted", "An insurance claim was submitted for invoice " + number + "."
	case billing.EventClaimResolved:
		return "Insurance claim update", "Your insurance claim for invoice " + number + " was " + detailString(evt, "claim_status") + "."
	}
	return "", ""
}

func detailAmount(evt billing.Event, key string) float64 {
	if evt.Detail == nil {
		return 0
	}
	if v, ok := evt.Detail[key].(float64); ok {
		return v
	}
	return 0
}

func detailString(evt billing.Event, key string) string {
	if evt.Detail == nil {
		return "updated"
	}
	if v, ok := evt.Detail[key].(string); ok && v != "" {
		return v
	}
	return "updated"
}
