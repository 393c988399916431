package billing

import (
	"context"
	"fmt"
)

// RecordPayment appends a completed payment to a payable invoice and
// recomputes the derived amounts. The amount guard is checked against the
// row locked inside the transaction, so two interleaved payments can never
// jointly drive AmountDue below zero.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, req RecordPaymentRequest, processedBy int64) (*Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var (
		payment *Payment
		updated *Invoice
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.Payable() {
			return fmt.Errorf("%w: %s invoice does not accept payments", ErrInvalidStatus, inv.Status)
		}
		if req.Amount > inv.AmountDue {
			return fmt.Errorf("%w: payment %.2f exceeds amount due %.2f", ErrValidation, req.Amount, inv.AmountDue)
		}

		now := s.clock()
		p := &Payment{
			InvoiceID:     inv.ID,
			Amount:        req.Amount,
			Method:        PaymentMethod(req.Method),
			Status:        PaymentCompleted,
			TransactionID: req.TransactionID,
			ReceiptNumber: NewReceiptNumber(now),
			Notes:         req.Notes,
			ProcessedBy:   processedBy,
			ProcessedAt:   now,
		}
		id, err := repo.InsertPayment(ctx, p)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		p.ID = id
		inv.Payments = append(inv.Payments, *p)

		inv.AmountPaid = inv.CompletedTotal()
		inv.AmountDue = inv.TotalAmount - inv.AmountPaid
		if inv.AmountDue < 0 {
			inv.AmountDue = 0
		}
		inv.Status = DeriveStatus(inv.AmountPaid, inv.TotalAmount, inv.Status)
		if inv.Status == StatusPaid && inv.PaidAt == nil {
			inv.PaidAt = &now
		}
		inv.UpdatedAt = now

		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}
		payment = p
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(updated, EventPaymentRecorded, SeveritySuccess, processedBy, map[string]any{
		"payment_id":     payment.ID,
		"amount":         payment.Amount,
		"method":         payment.Method,
		"receipt_number": payment.ReceiptNumber,
		"amount_due":     updated.AmountDue,
		"status":         updated.Status,
	}))
	return payment, nil
}

// VoidPayment reverses a completed payment without deleting its record.
// The recompute sums all remaining completed payments, so voiding is
// order-independent.
func (s *Service) VoidPayment(ctx context.Context, invoiceID, paymentID int64, reason string, voidedBy int64) (*Invoice, error) {
	var (
		updated      *Invoice
		voidedAmount float64
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		p := inv.FindPayment(paymentID)
		if p == nil {
			return ErrPaymentNotFound
		}
		if p.Status != PaymentCompleted {
			return fmt.Errorf("%w: only completed payments can be voided", ErrInvalidStatus)
		}
		voidedAmount = p.Amount

		now := s.clock()
		p.Status = PaymentRefunded
		p.Notes = appendNote(p.Notes, "Voided: "+reason)
		if err := repo.UpdatePayment(ctx, *p); err != nil {
			return fmt.Errorf("void payment: %w", err)
		}

		inv.AmountPaid = inv.CompletedTotal()
		inv.AmountDue = inv.TotalAmount - inv.AmountPaid
		if inv.AmountDue < 0 {
			inv.AmountDue = 0
		}
		inv.Status = DeriveStatus(inv.AmountPaid, inv.TotalAmount, inv.Status)
		if inv.Status != StatusPaid {
			inv.PaidAt = nil
		}
		inv.UpdatedAt = now

		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("apply void: %w", err)
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(updated, EventPaymentVoided, SeverityInfo, voidedBy, map[string]any{
		"payment_id": paymentID,
		"amount":     voidedAmount,
		"reason":     reason,
		"amount_due": updated.AmountDue,
		"status":     updated.Status,
	}))
	return s.repo.Get(ctx, invoiceID)
}
