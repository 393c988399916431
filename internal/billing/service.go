package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clinicore/clinicore/internal/insurance"
)

// Service owns the invoice lifecycle and the payment ledger. Every mutation
// is a single read-validate-write transaction against the invoice row.
type Service struct {
	repo      Repository
	events    Publisher
	insurance insurance.Lookup
	validate  *validator.Validate
	logger    *slog.Logger
	clock     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, events Publisher, lookup insurance.Lookup, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		events:    events,
		insurance: lookup,
		validate:  validator.New(),
		logger:    logger,
		clock:     time.Now,
	}
}

// SetClock overrides the time source, used by tests.
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Error("publish billing event", slog.String("type", ev.Type), slog.Int64("invoice_id", ev.InvoiceID), slog.Any("error", err))
	}
}

func (s *Service) event(inv *Invoice, typ, severity string, actorID int64, detail map[string]any) Event {
	return Event{
		Type:          typ,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PatientID:     inv.PatientID,
		ActorID:       actorID,
		Severity:      severity,
		OccurredAt:    s.clock(),
		Detail:        detail,
	}
}

func itemsFromRequests(reqs []CreateBillingItemReq) []BillingItem {
	items := make([]BillingItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, BillingItem{
			Description:    r.Description,
			Code:           r.Code,
			Quantity:       r.Quantity,
			UnitPrice:      r.UnitPrice,
			Category:       ItemCategory(r.Category),
			Taxable:        r.Taxable,
			DiscountAmount: r.DiscountAmount,
			Notes:          r.Notes,
		})
	}
	return items
}

// Create opens a draft invoice with computed totals and an allocated
// invoice number.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for _, item := range req.Items {
		if item.DiscountAmount > float64(item.Quantity)*item.UnitPrice {
			return nil, fmt.Errorf("%w: item discount exceeds line amount", ErrValidation)
		}
	}

	now := s.clock()
	items := itemsFromRequests(req.Items)
	totals := ComputeTotals(items, req.TaxRate, req.DiscountAmount)

	inv := &Invoice{
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		AppointmentID:  req.AppointmentID,
		Items:          items,
		Subtotal:       totals.Subtotal,
		TaxRate:        req.TaxRate,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		AmountPaid:     0,
		AmountDue:      totals.TotalAmount,
		DueDate:        req.DueDate,
		Status:         StatusDraft,
		InsuranceClaim: InsuranceClaim{Status: ClaimNotSubmitted},
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextInvoiceNumber(ctx, now)
		if err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}
		inv.InvoiceNumber = number

		id, err := repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		inv.ID = id

		if err := repo.ReplaceItems(ctx, id, inv.Items); err != nil {
			return fmt.Errorf("write invoice items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(inv, EventInvoiceCreated, SeverityInfo, createdBy, map[string]any{
		"total_amount": inv.TotalAmount,
	}))
	return s.repo.Get(ctx, inv.ID)
}

// Issue moves a draft invoice to ISSUED and stamps the issue time.
func (s *Service) Issue(ctx context.Context, id int64, issuedBy int64) (*Invoice, error) {
	var issued *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != StatusDraft {
			return fmt.Errorf("%w: only draft invoices can be issued", ErrInvalidStatus)
		}
		now := s.clock()
		inv.Status = StatusIssued
		inv.IssuedAt = &now
		inv.UpdatedAt = now
		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("issue invoice: %w", err)
		}
		issued = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(issued, EventInvoiceIssued, SeverityInfo, issuedBy, map[string]any{
		"due_date":     issued.DueDate,
		"total_amount": issued.TotalAmount,
	}))
	return s.repo.Get(ctx, id)
}

// Update edits invoice attributes. Item edits are rejected on terminal
// statuses; any change to items, tax rate or discount recomputes the
// derived totals without touching AmountPaid.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest, updatedBy int64) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Items != nil && inv.Status.Terminal() {
			return fmt.Errorf("%w: items cannot change on a %s invoice", ErrInvalidStatus, inv.Status)
		}

		itemsChanged := false
		if req.Items != nil {
			for _, item := range *req.Items {
				if item.DiscountAmount > float64(item.Quantity)*item.UnitPrice {
					return fmt.Errorf("%w: item discount exceeds line amount", ErrValidation)
				}
			}
			inv.Items = itemsFromRequests(*req.Items)
			for i := range inv.Items {
				inv.Items[i].InvoiceID = inv.ID
			}
			itemsChanged = true
		}
		if req.TaxRate != nil {
			inv.TaxRate = *req.TaxRate
		}
		if req.DiscountAmount != nil {
			inv.DiscountAmount = *req.DiscountAmount
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Notes != nil {
			inv.Notes = req.Notes
		}

		now := s.clock()
		if itemsChanged || req.TaxRate != nil || req.DiscountAmount != nil {
			totals := ComputeTotals(inv.Items, inv.TaxRate, inv.DiscountAmount)
			inv.Subtotal = totals.Subtotal
			inv.TaxAmount = totals.TaxAmount
			inv.TotalAmount = totals.TotalAmount
			inv.AmountDue = inv.TotalAmount - inv.AmountPaid
			if inv.AmountDue < 0 {
				inv.AmountDue = 0
			}
			derived := DeriveStatus(inv.AmountPaid, inv.TotalAmount, inv.Status)
			// An unsettled invoice past its due date stays OVERDUE across edits.
			if inv.Status == StatusOverdue && derived != StatusPaid && inv.DueDate.Before(now) {
				derived = StatusOverdue
			}
			inv.Status = derived
		}
		inv.UpdatedAt = now

		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if itemsChanged {
			if err := repo.ReplaceItems(ctx, inv.ID, inv.Items); err != nil {
				return fmt.Errorf("write invoice items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, s.event(updated, EventInvoiceUpdated, SeverityInfo, updatedBy, nil))
	return updated, nil
}

// Cancel terminates a non-terminal invoice and appends the reason to its
// notes.
func (s *Service) Cancel(ctx context.Context, id int64, reason string, cancelledBy int64) (*Invoice, error) {
	var cancelled *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status.Terminal() {
			return fmt.Errorf("%w: %s invoice cannot be cancelled", ErrInvalidStatus, inv.Status)
		}
		inv.Status = StatusCancelled
		inv.Notes = appendNote(inv.Notes, "Cancelled: "+reason)
		inv.UpdatedAt = s.clock()
		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("cancel invoice: %w", err)
		}
		cancelled = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(cancelled, EventInvoiceCancelled, SeverityInfo, cancelledBy, map[string]any{
		"reason": reason,
	}))
	return s.repo.Get(ctx, id)
}

// Delete removes a draft invoice. Issued invoices are never physically
// deleted.
func (s *Service) Delete(ctx context.Context, id int64, deletedBy int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != StatusDraft {
			return fmt.Errorf("%w: only draft invoices can be deleted", ErrInvalidStatus)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

// MarkOverdue flags an issued or partially paid invoice past its due date.
// The periodic scan job is the caller; the ledger does not schedule it.
func (s *Service) MarkOverdue(ctx context.Context, id int64) (*Invoice, error) {
	var marked *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != StatusIssued && inv.Status != StatusPartiallyPaid {
			return fmt.Errorf("%w: %s invoice cannot become overdue", ErrInvalidStatus, inv.Status)
		}
		now := s.clock()
		if !inv.DueDate.Before(now) {
			return fmt.Errorf("%w: invoice is not past due", ErrInvalidStatus)
		}
		inv.Status = StatusOverdue
		inv.UpdatedAt = now
		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("mark overdue: %w", err)
		}
		marked = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(marked, EventInvoiceOverdue, SeverityError, 0, map[string]any{
		"due_date":   marked.DueDate,
		"amount_due": marked.AmountDue,
	}))
	return s.repo.Get(ctx, id)
}

// Get returns a single invoice with items and payments.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter along with the total count.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
