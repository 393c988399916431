package billing

import "errors"

var (
	// ErrInvoiceNotFound indicates the invoice id does not resolve.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrPaymentNotFound indicates the payment id does not resolve.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrClaimNotFound indicates no insurance claim is attached.
	ErrClaimNotFound = errors.New("no insurance claim attached to invoice")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStatus indicates the operation is not permitted in the
	// invoice's or payment's current status.
	ErrInvalidStatus = errors.New("invalid status for operation")
	// ErrConflict indicates a concurrent write touched the invoice between
	// read and write. Callers are expected to retry.
	ErrConflict = errors.New("invoice modified concurrently")
)
