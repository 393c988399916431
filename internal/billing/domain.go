package billing

import "time"

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusIssued        InvoiceStatus = "ISSUED"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusPaid          InvoiceStatus = "PAID"
	StatusOverdue       InvoiceStatus = "OVERDUE"
	StatusCancelled     InvoiceStatus = "CANCELLED"
	StatusRefunded      InvoiceStatus = "REFUNDED"
)

// Terminal reports whether an invoice in this status accepts no further
// item or payment mutation other than void-driven recomputation from PAID.
func (s InvoiceStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusRefunded
}

// Payable reports whether payments may be recorded against this status.
func (s InvoiceStatus) Payable() bool {
	return s == StatusIssued || s == StatusPartiallyPaid || s == StatusOverdue
}

// PaymentMethod enumerates settlement methods.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodInsurance    PaymentMethod = "INSURANCE"
	MethodOther        PaymentMethod = "OTHER"
)

// PaymentStatus enumerates payment states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// ItemCategory enumerates billable line categories.
type ItemCategory string

const (
	CategoryConsultation ItemCategory = "CONSULTATION"
	CategoryProcedure    ItemCategory = "PROCEDURE"
	CategoryMedication   ItemCategory = "MEDICATION"
	CategoryLabTest      ItemCategory = "LAB_TEST"
	CategoryImaging      ItemCategory = "IMAGING"
	CategoryOther        ItemCategory = "OTHER"
)

// ClaimStatus enumerates insurance claim states.
type ClaimStatus string

const (
	ClaimNotSubmitted      ClaimStatus = "NOT_SUBMITTED"
	ClaimSubmitted         ClaimStatus = "SUBMITTED"
	ClaimInProgress        ClaimStatus = "IN_PROGRESS"
	ClaimApproved          ClaimStatus = "APPROVED"
	ClaimPartiallyApproved ClaimStatus = "PARTIALLY_APPROVED"
	ClaimDenied            ClaimStatus = "DENIED"
)

// BillingItem is one billable line owned by its invoice.
type BillingItem struct {
	ID             int64        `json:"id" db:"id"`
	InvoiceID      int64        `json:"invoice_id" db:"invoice_id"`
	Description    string       `json:"description" db:"description"`
	Code           *string      `json:"code,omitempty" db:"code"`
	Quantity       int          `json:"quantity" db:"quantity"`
	UnitPrice      float64      `json:"unit_price" db:"unit_price"`
	Category       ItemCategory `json:"category" db:"category"`
	Taxable        bool         `json:"taxable" db:"taxable"`
	DiscountAmount float64      `json:"discount_amount" db:"discount_amount"`
	TotalPrice     float64      `json:"total_price" db:"total_price"`
	Notes          *string      `json:"notes,omitempty" db:"notes"`
}

// Payment is one settlement event against an invoice. Once completed it is
// immutable except for a transition to REFUNDED via voiding.
type Payment struct {
	ID            int64         `json:"id" db:"id"`
	InvoiceID     int64         `json:"invoice_id" db:"invoice_id"`
	Amount        float64       `json:"amount" db:"amount"`
	Method        PaymentMethod `json:"method" db:"method"`
	Status        PaymentStatus `json:"status" db:"status"`
	TransactionID *string       `json:"transaction_id,omitempty" db:"transaction_id"`
	ReceiptNumber string        `json:"receipt_number" db:"receipt_number"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	ProcessedBy   int64         `json:"processed_by" db:"processed_by"`
	ProcessedAt   time.Time     `json:"processed_at" db:"processed_at"`
}

// InsuranceClaim is embedded in its invoice; at most one active per invoice.
type InsuranceClaim struct {
	ClaimID        *string     `json:"claim_id,omitempty" db:"claim_id"`
	Status         ClaimStatus `json:"status" db:"status"`
	ApprovedAmount *float64    `json:"approved_amount,omitempty" db:"approved_amount"`
	DenialReason   *string     `json:"denial_reason,omitempty" db:"denial_reason"`
}

// Invoice is the aggregate root of the billing ledger.
type Invoice struct {
	ID             int64          `json:"id" db:"id"`
	PatientID      int64          `json:"patient_id" db:"patient_id"`
	DoctorID       int64          `json:"doctor_id" db:"doctor_id"`
	AppointmentID  *int64         `json:"appointment_id,omitempty" db:"appointment_id"`
	InvoiceNumber  string         `json:"invoice_number" db:"invoice_number"`
	Items          []BillingItem  `json:"items,omitempty" db:"-"`
	Subtotal       float64        `json:"subtotal" db:"subtotal"`
	TaxRate        float64        `json:"tax_rate" db:"tax_rate"`
	TaxAmount      float64        `json:"tax_amount" db:"tax_amount"`
	DiscountAmount float64        `json:"discount_amount" db:"discount_amount"`
	TotalAmount    float64        `json:"total_amount" db:"total_amount"`
	AmountPaid     float64        `json:"amount_paid" db:"amount_paid"`
	AmountDue      float64        `json:"amount_due" db:"amount_due"`
	DueDate        time.Time      `json:"due_date" db:"due_date"`
	Status         InvoiceStatus  `json:"status" db:"status"`
	Payments       []Payment      `json:"payments,omitempty" db:"-"`
	InsuranceClaim InsuranceClaim `json:"insurance_claim" db:"-"`
	Notes          *string        `json:"notes,omitempty" db:"notes"`
	Version        int64          `json:"version" db:"version"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty" db:"issued_at"`
	PaidAt         *time.Time     `json:"paid_at,omitempty" db:"paid_at"`
}

// CompletedTotal sums completed payments. It is the authoritative source for
// AmountPaid after any payment mutation.
func (inv *Invoice) CompletedTotal() float64 {
	var paid float64
	for _, p := range inv.Payments {
		if p.Status == PaymentCompleted {
			paid += p.Amount
		}
	}
	return paid
}

// FindPayment returns the payment with the given id, or nil.
func (inv *Invoice) FindPayment(paymentID int64) *Payment {
	for i := range inv.Payments {
		if inv.Payments[i].ID == paymentID {
			return &inv.Payments[i]
		}
	}
	return nil
}

// DeriveStatus maps paid/total amounts onto an invoice status. CANCELLED,
// REFUNDED and DRAFT are sticky; every mutator goes through this single
// function so the mapping cannot drift between call sites.
func DeriveStatus(amountPaid, totalAmount float64, current InvoiceStatus) InvoiceStatus {
	switch current {
	case StatusDraft, StatusCancelled, StatusRefunded:
		return current
	}
	switch {
	case totalAmount > 0 && amountPaid >= totalAmount:
		return StatusPaid
	case amountPaid > 0:
		return StatusPartiallyPaid
	default:
		return StatusIssued
	}
}
