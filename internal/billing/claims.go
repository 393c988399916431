package billing

import (
	"context"
	"fmt"
)

// SubmitClaim attaches an insurance claim to a payable invoice after
// confirming the patient has active coverage.
func (s *Service) SubmitClaim(ctx context.Context, invoiceID int64, req SubmitClaimRequest, submittedBy int64) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var submitted *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.Payable() {
			return fmt.Errorf("%w: claims can only be submitted on payable invoices", ErrInvalidStatus)
		}
		switch inv.InsuranceClaim.Status {
		case ClaimSubmitted, ClaimInProgress:
			return fmt.Errorf("%w: invoice already has an active claim", ErrInvalidStatus)
		}

		if s.insurance != nil {
			covered, err := s.insurance.HasActiveCoverage(ctx, inv.PatientID)
			if err != nil {
				return fmt.Errorf("check coverage: %w", err)
			}
			if !covered {
				return fmt.Errorf("%w: patient has no active insurance coverage", ErrValidation)
			}
		}

		claimID := req.ClaimID
		inv.InsuranceClaim = InsuranceClaim{ClaimID: &claimID, Status: ClaimSubmitted}
		inv.UpdatedAt = s.clock()
		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("submit claim: %w", err)
		}
		submitted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.event(submitted, EventClaimSubmitted, SeverityInfo, submittedBy, map[string]any{
		"claim_id": req.ClaimID,
	}))
	return s.repo.Get(ctx, invoiceID)
}

// ResolveClaim advances the attached claim. An approval with a positive
// approved amount settles through the payment ledger as an insurance
// payment, capped at the remaining amount due.
func (s *Service) ResolveClaim(ctx context.Context, invoiceID int64, req ResolveClaimRequest, resolvedBy int64) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	status := ClaimStatus(req.Status)

	var (
		resolved     *Invoice
		claimID      string
		settleAmount float64
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.InsuranceClaim.ClaimID == nil || inv.InsuranceClaim.Status == ClaimNotSubmitted {
			return ErrClaimNotFound
		}
		claimID = *inv.InsuranceClaim.ClaimID

		inv.InsuranceClaim.Status = status
		inv.InsuranceClaim.ApprovedAmount = req.ApprovedAmount
		if status == ClaimDenied {
			inv.InsuranceClaim.DenialReason = req.DenialReason
		} else {
			inv.InsuranceClaim.DenialReason = nil
		}
		inv.UpdatedAt = s.clock()
		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("resolve claim: %w", err)
		}

		if (status == ClaimApproved || status == ClaimPartiallyApproved) && req.ApprovedAmount != nil && *req.ApprovedAmount > 0 {
			settleAmount = *req.ApprovedAmount
			if settleAmount > inv.AmountDue {
				settleAmount = inv.AmountDue
			}
		}
		resolved = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settleAmount > 0 {
		note := "Insurance claim settlement"
		if _, err := s.RecordPayment(ctx, invoiceID, RecordPaymentRequest{
			Amount:        settleAmount,
			Method:        string(MethodInsurance),
			TransactionID: &claimID,
			Notes:         &note,
		}, resolvedBy); err != nil {
			return nil, fmt.Errorf("settle approved claim: %w", err)
		}
	}

	severity := SeverityInfo
	switch status {
	case ClaimApproved, ClaimPartiallyApproved:
		severity = SeveritySuccess
	case ClaimDenied:
		severity = SeverityError
	}
	s.publish(ctx, s.event(resolved, EventClaimResolved, severity, resolvedBy, map[string]any{
		"claim_id":        claimID,
		"claim_status":    status,
		"approved_amount": req.ApprovedAmount,
		"denial_reason":   req.DenialReason,
	}))
	return s.repo.Get(ctx, invoiceID)
}
