package billing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinicore/internal/insurance"
)

type memoryRepo struct {
	invoices      map[int64]*Invoice
	items         map[int64][]BillingItem
	payments      map[int64][]Payment
	seq           map[string]int64
	nextInvoiceID int64
	nextItemID    int64
	nextPaymentID int64
	failUpdate    bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[int64]*Invoice),
		items:    make(map[int64][]BillingItem),
		payments: make(map[int64][]Payment),
		seq:      make(map[string]int64),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	cp := *inv
	cp.Items = append([]BillingItem(nil), r.items[id]...)
	cp.Payments = append([]Payment(nil), r.payments[id]...)
	return &cp, nil
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if req.PatientID != nil && inv.PatientID != *req.PatientID {
			continue
		}
		if req.DoctorID != nil && inv.DoctorID != *req.DoctorID {
			continue
		}
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, inv *Invoice) (int64, error) {
	r.nextInvoiceID++
	cp := *inv
	cp.ID = r.nextInvoiceID
	cp.Items = nil
	cp.Payments = nil
	cp.Version = 1
	r.invoices[cp.ID] = &cp
	inv.Version = 1
	return cp.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, inv *Invoice) error {
	if r.failUpdate {
		return ErrConflict
	}
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return ErrInvoiceNotFound
	}
	if stored.Version != inv.Version {
		return ErrConflict
	}
	cp := *inv
	cp.Items = nil
	cp.Payments = nil
	cp.Version = stored.Version + 1
	r.invoices[inv.ID] = &cp
	inv.Version++
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.invoices[id]; !ok {
		return ErrInvoiceNotFound
	}
	delete(r.invoices, id)
	delete(r.items, id)
	delete(r.payments, id)
	return nil
}

func (r *memoryRepo) ReplaceItems(ctx context.Context, invoiceID int64, items []BillingItem) error {
	stored := make([]BillingItem, 0, len(items))
	for i := range items {
		r.nextItemID++
		items[i].ID = r.nextItemID
		items[i].InvoiceID = invoiceID
		stored = append(stored, items[i])
	}
	r.items[invoiceID] = stored
	return nil
}

func (r *memoryRepo) InsertPayment(ctx context.Context, p *Payment) (int64, error) {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	r.payments[p.InvoiceID] = append(r.payments[p.InvoiceID], *p)
	return p.ID, nil
}

func (r *memoryRepo) UpdatePayment(ctx context.Context, p Payment) error {
	payments := r.payments[p.InvoiceID]
	for i := range payments {
		if payments[i].ID == p.ID {
			payments[i].Status = p.Status
			payments[i].Notes = p.Notes
			return nil
		}
	}
	return ErrPaymentNotFound
}

func (r *memoryRepo) NextInvoiceNumber(ctx context.Context, day time.Time) (string, error) {
	utcDay := day.UTC().Truncate(24 * time.Hour)
	key := utcDay.Format("20060102")
	r.seq[key]++
	return FormatInvoiceNumber(utcDay, r.seq[key]), nil
}

func (r *memoryRepo) ListDueCandidates(ctx context.Context, asOf time.Time) ([]int64, error) {
	var ids []int64
	for id, inv := range r.invoices {
		if (inv.Status == StatusIssued || inv.Status == StatusPartiallyPaid) && inv.DueDate.Before(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type capturePublisher struct {
	events []Event
}

func (p *capturePublisher) Publish(ctx context.Context, ev Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) last() Event {
	if len(p.events) == 0 {
		return Event{}
	}
	return p.events[len(p.events)-1]
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memoryRepo, *capturePublisher) {
	t.Helper()
	repo := newMemoryRepo()
	pub := &capturePublisher{}
	lookup := &insurance.Static{Covered: map[int64]bool{100: true}}
	svc := NewService(repo, pub, lookup, slog.Default())
	svc.SetClock(func() time.Time { return testNow })
	return svc, repo, pub
}

func draftRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		PatientID: 100,
		DoctorID:  7,
		Items: []CreateBillingItemReq{
			{Description: "General consultation", Quantity: 1, UnitPrice: 150, Category: "CONSULTATION", Taxable: true},
			{Description: "Amoxicillin 500mg", Quantity: 2, UnitPrice: 35, DiscountAmount: 20, Category: "MEDICATION"},
		},
		TaxRate: 10,
		DueDate: testNow.AddDate(0, 0, 14),
	}
}

func issuedInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	ctx := context.Background()
	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	inv, err = svc.Issue(ctx, inv.ID, 1)
	require.NoError(t, err)
	return inv
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
	require.Equal(t, "INV-20260314-0001", inv.InvoiceNumber)
	require.Equal(t, 200.0, inv.Subtotal)
	require.Equal(t, 20.0, inv.TaxAmount)
	require.Equal(t, 220.0, inv.TotalAmount)
	require.Equal(t, 0.0, inv.AmountPaid)
	require.Equal(t, 220.0, inv.AmountDue)
	require.Len(t, inv.Items, 2)
	require.Equal(t, 50.0, inv.Items[1].TotalPrice)
	require.Equal(t, ClaimNotSubmitted, inv.InsuranceClaim.Status)

	require.Equal(t, EventInvoiceCreated, pub.last().Type)
	require.Equal(t, inv.ID, pub.last().InvoiceID)
}

func TestCreateInvoiceNumbersAdvancePerDay(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	first, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	second, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	require.Equal(t, "INV-20260314-0001", first.InvoiceNumber)
	require.Equal(t, "INV-20260314-0002", second.InvoiceNumber)
}

func TestCreateInvoiceRequiresItems(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	req := draftRequest()
	req.Items = nil
	_, err := svc.Create(ctx, req, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateInvoiceRejectsExcessiveItemDiscount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	req := draftRequest()
	req.Items[0].DiscountAmount = 500
	_, err := svc.Create(ctx, req, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestIssueInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)

	issued, err := svc.Issue(ctx, inv.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)
	require.Equal(t, testNow, *issued.IssuedAt)
	require.Equal(t, EventInvoiceIssued, pub.last().Type)
}

func TestIssueInvoiceTwice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.Issue(ctx, inv.ID, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateInvoiceRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)

	discount := 20.0
	updated, err := svc.Update(ctx, inv.ID, UpdateInvoiceRequest{DiscountAmount: &discount}, 1)
	require.NoError(t, err)
	require.Equal(t, 200.0, updated.Subtotal)
	require.Equal(t, 200.0, updated.TotalAmount)
	require.Equal(t, 200.0, updated.AmountDue)
	require.Equal(t, StatusDraft, updated.Status)
}

func TestUpdateKeepsOverdueWhileUnsettled(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	repo.invoices[inv.ID].DueDate = testNow.AddDate(0, 0, -3)
	_, err := svc.MarkOverdue(ctx, inv.ID)
	require.NoError(t, err)

	discount := 20.0
	updated, err := svc.Update(ctx, inv.ID, UpdateInvoiceRequest{DiscountAmount: &discount}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, updated.Status)
	require.Equal(t, 200.0, updated.TotalAmount)

	// Paying off the edited balance still settles the invoice.
	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 200, Method: "CASH"}, 2)
	require.NoError(t, err)
	after, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, after.Status)
}

func TestUpdateInvoiceItemsRejectedWhenPaid(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 220, Method: "CASH"}, 2)
	require.NoError(t, err)

	items := draftRequest().Items
	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceRequest{Items: &items}, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateInvoiceNotesOnPaidInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 220, Method: "CASH"}, 2)
	require.NoError(t, err)

	note := "patient requested itemised copy"
	updated, err := svc.Update(ctx, inv.ID, UpdateInvoiceRequest{Notes: &note}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)
	require.Equal(t, note, *updated.Notes)
}

func TestRecordPaymentFull(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	inv := issuedInvoice(t, svc)

	p, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 220, Method: "CASH"}, 2)
	require.NoError(t, err)
	require.Equal(t, PaymentCompleted, p.Status)
	require.Contains(t, p.ReceiptNumber, "RCP-20260314-")

	after, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, after.Status)
	require.Equal(t, 220.0, after.AmountPaid)
	require.Equal(t, 0.0, after.AmountDue)
	require.NotNil(t, after.PaidAt)
	require.Equal(t, EventPaymentRecorded, pub.last().Type)
	require.Equal(t, SeveritySuccess, pub.last().Severity)
}

func TestRecordPaymentPartialThenFull(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 100, Method: "CASH"}, 2)
	require.NoError(t, err)
	mid, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, mid.Status)
	require.Equal(t, 120.0, mid.AmountDue)
	require.Nil(t, mid.PaidAt)

	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 120, Method: "CREDIT_CARD"}, 2)
	require.NoError(t, err)
	after, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, after.Status)
	require.Equal(t, 0.0, after.AmountDue)
}

func TestRecordPaymentExceedsAmountDue(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 221, Method: "CASH"}, 2)
	require.ErrorIs(t, err, ErrValidation)
}

func TestInterleavedPaymentsCannotOverpay(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	// Both amounts pass the guard against the original 220 due; the second
	// must be validated against the balance left by the first.
	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 150, Method: "CASH"}, 2)
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 150, Method: "CASH"}, 2)
	require.ErrorIs(t, err, ErrValidation)

	after, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, 150.0, after.AmountPaid)
	require.Equal(t, 70.0, after.AmountDue)
	require.Equal(t, StatusPartiallyPaid, after.Status)
}

func TestRecordPaymentOnDraft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 50, Method: "CASH"}, 2)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRecordPaymentOnOverdueInvoice(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	repo.invoices[inv.ID].DueDate = testNow.AddDate(0, 0, -1)
	_, err := svc.MarkOverdue(ctx, inv.ID)
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 220, Method: "BANK_TRANSFER"}, 2)
	require.NoError(t, err)
	after, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, after.Status)
}

func TestVoidPayment(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	inv := issuedInvoice(t, svc)

	first, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 100, Method: "CASH"}, 2)
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 120, Method: "CASH"}, 2)
	require.NoError(t, err)

	after, err := svc.VoidPayment(ctx, inv.ID, first.ID, "duplicate charge", 3)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, after.Status)
	require.Equal(t, 120.0, after.AmountPaid)
	require.Equal(t, 100.0, after.AmountDue)
	require.Nil(t, after.PaidAt)

	voided := after.FindPayment(first.ID)
	require.NotNil(t, voided)
	require.Equal(t, PaymentRefunded, voided.Status)
	require.Contains(t, *voided.Notes, "Voided: duplicate charge")
	require.Equal(t, EventPaymentVoided, pub.last().Type)
	require.Equal(t, 100.0, pub.last().Detail["amount"])
}

func TestVoidPaymentTwice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	p, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 100, Method: "CASH"}, 2)
	require.NoError(t, err)
	_, err = svc.VoidPayment(ctx, inv.ID, p.ID, "keyed wrong amount", 3)
	require.NoError(t, err)

	_, err = svc.VoidPayment(ctx, inv.ID, p.ID, "again", 3)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestVoidPaymentUnknownID(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.VoidPayment(ctx, inv.ID, 999, "none", 3)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCancelInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	cancelled, err := svc.Cancel(ctx, inv.ID, "patient no-show", 1)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Contains(t, *cancelled.Notes, "Cancelled: patient no-show")

	_, err = svc.Cancel(ctx, inv.ID, "again", 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelPaidInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 220, Method: "CASH"}, 2)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, inv.ID, "too late", 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteInvoiceOnlyDraft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	draft, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, draft.ID, 1))
	_, err = svc.Get(ctx, draft.ID)
	require.ErrorIs(t, err, ErrInvoiceNotFound)

	inv := issuedInvoice(t, svc)
	err = svc.Delete(ctx, inv.ID, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMarkOverdue(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.MarkOverdue(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	repo.invoices[inv.ID].DueDate = testNow.AddDate(0, 0, -3)
	marked, err := svc.MarkOverdue(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, marked.Status)
	require.Equal(t, EventInvoiceOverdue, pub.last().Type)
	require.Equal(t, SeverityError, pub.last().Severity)
}

func TestUpdateConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	repo.failUpdate = true
	_, err := svc.Cancel(ctx, inv.ID, "conflict", 1)
	require.ErrorIs(t, err, ErrConflict)
}

func TestSubmitClaim(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	inv := issuedInvoice(t, svc)

	after, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-881"}, 1)
	require.NoError(t, err)
	require.Equal(t, ClaimSubmitted, after.InsuranceClaim.Status)
	require.Equal(t, "CLM-881", *after.InsuranceClaim.ClaimID)
	require.Equal(t, EventClaimSubmitted, pub.last().Type)
}

func TestSubmitClaimWithoutCoverage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	svc.insurance = &insurance.Static{}
	_, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-882"}, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitClaimAlreadyActive(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-883"}, 1)
	require.NoError(t, err)
	_, err = svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-884"}, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSubmitClaimOnDraft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)
	_, err = svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-885"}, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestResolveClaimApprovedSettles(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-900"}, 1)
	require.NoError(t, err)

	approved := 220.0
	after, err := svc.ResolveClaim(ctx, inv.ID, ResolveClaimRequest{Status: "APPROVED", ApprovedAmount: &approved}, 1)
	require.NoError(t, err)
	require.Equal(t, ClaimApproved, after.InsuranceClaim.Status)
	require.Equal(t, StatusPaid, after.Status)
	require.Equal(t, 0.0, after.AmountDue)
	require.Len(t, after.Payments, 1)
	require.Equal(t, MethodInsurance, after.Payments[0].Method)
	require.Equal(t, "CLM-900", *after.Payments[0].TransactionID)
}

func TestResolveClaimApprovalCappedAtAmountDue(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: 100, Method: "CASH"}, 2)
	require.NoError(t, err)
	_, err = svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-901"}, 1)
	require.NoError(t, err)

	approved := 500.0
	after, err := svc.ResolveClaim(ctx, inv.ID, ResolveClaimRequest{Status: "APPROVED", ApprovedAmount: &approved}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, after.Status)
	require.Equal(t, 220.0, after.AmountPaid)
	require.Len(t, after.Payments, 2)
	require.Equal(t, 120.0, after.Payments[1].Amount)
}

func TestResolveClaimPartiallyApproved(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-902"}, 1)
	require.NoError(t, err)

	approved := 150.0
	after, err := svc.ResolveClaim(ctx, inv.ID, ResolveClaimRequest{Status: "PARTIALLY_APPROVED", ApprovedAmount: &approved}, 1)
	require.NoError(t, err)
	require.Equal(t, ClaimPartiallyApproved, after.InsuranceClaim.Status)
	require.Equal(t, StatusPartiallyPaid, after.Status)
	require.Equal(t, 70.0, after.AmountDue)
}

func TestResolveClaimDenied(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.SubmitClaim(ctx, inv.ID, SubmitClaimRequest{ClaimID: "CLM-903"}, 1)
	require.NoError(t, err)

	reason := "pre-existing condition exclusion"
	after, err := svc.ResolveClaim(ctx, inv.ID, ResolveClaimRequest{Status: "DENIED", DenialReason: &reason}, 1)
	require.NoError(t, err)
	require.Equal(t, ClaimDenied, after.InsuranceClaim.Status)
	require.Equal(t, reason, *after.InsuranceClaim.DenialReason)
	require.Equal(t, StatusIssued, after.Status)
	require.Empty(t, after.Payments)
	require.Equal(t, SeverityError, pub.last().Severity)
}

func TestResolveClaimWithoutSubmission(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	approved := 100.0
	_, err := svc.ResolveClaim(ctx, inv.ID, ResolveClaimRequest{Status: "APPROVED", ApprovedAmount: &approved}, 1)
	require.ErrorIs(t, err, ErrClaimNotFound)
}

func TestListInvoicesByStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	issuedInvoice(t, svc)
	_, err := svc.Create(ctx, draftRequest(), 1)
	require.NoError(t, err)

	status := StatusDraft
	out, total, err := svc.List(ctx, ListInvoicesRequest{Status: &status})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, out, 1)
	require.Equal(t, StatusDraft, out[0].Status)
}
