package billing

import "time"

type CreateBillingItemReq struct {
	Description    string  `json:"description" validate:"required,max=500"`
	Code           *string `json:"code,omitempty" validate:"omitempty,max=50"`
	Quantity       int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice      float64 `json:"unit_price" validate:"gte=0"`
	Category       string  `json:"category" validate:"required,oneof=CONSULTATION PROCEDURE MEDICATION LAB_TEST IMAGING OTHER"`
	Taxable        bool    `json:"taxable"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	Notes          *string `json:"notes,omitempty"`
}

type CreateInvoiceRequest struct {
	PatientID      int64                  `json:"patient_id" validate:"required,gt=0"`
	DoctorID       int64                  `json:"doctor_id" validate:"required,gt=0"`
	AppointmentID  *int64                 `json:"appointment_id,omitempty" validate:"omitempty,gt=0"`
	Items          []CreateBillingItemReq `json:"items" validate:"required,min=1,dive"`
	TaxRate        float64                `json:"tax_rate" validate:"gte=0"`
	DiscountAmount float64                `json:"discount_amount" validate:"gte=0"`
	DueDate        time.Time              `json:"due_date" validate:"required"`
	Notes          *string                `json:"notes,omitempty"`
}

type UpdateInvoiceRequest struct {
	Items          *[]CreateBillingItemReq `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	TaxRate        *float64                `json:"tax_rate,omitempty" validate:"omitempty,gte=0"`
	DiscountAmount *float64                `json:"discount_amount,omitempty" validate:"omitempty,gte=0"`
	DueDate        *time.Time              `json:"due_date,omitempty"`
	Notes          *string                 `json:"notes,omitempty"`
}

type RecordPaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"required,oneof=CASH CREDIT_CARD DEBIT_CARD BANK_TRANSFER INSURANCE OTHER"`
	TransactionID *string `json:"transaction_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type SubmitClaimRequest struct {
	ClaimID string `json:"claim_id" validate:"required,max=100"`
}

type ResolveClaimRequest struct {
	Status         string   `json:"status" validate:"required,oneof=IN_PROGRESS APPROVED PARTIALLY_APPROVED DENIED"`
	ApprovedAmount *float64 `json:"approved_amount,omitempty" validate:"omitempty,gt=0"`
	DenialReason   *string  `json:"denial_reason,omitempty"`
}

type ListInvoicesRequest struct {
	PatientID *int64         `json:"patient_id,omitempty"`
	DoctorID  *int64         `json:"doctor_id,omitempty"`
	Status    *InvoiceStatus `json:"status,omitempty"`
	DateFrom  *time.Time     `json:"date_from,omitempty"`
	DateTo    *time.Time     `json:"date_to,omitempty"`
	Limit     int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int            `json:"offset" validate:"gte=0"`
}
