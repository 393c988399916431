package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatInvoiceNumber renders INV-YYYYMMDD-NNNN for the given UTC day and
// sequence value. Sequence allocation itself lives in the repository so two
// concurrent creators can never compute the same number.
func FormatInvoiceNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%04d", day.UTC().Format("20060102"), seq)
}

// NewReceiptNumber generates a receipt number for a recorded payment.
func NewReceiptNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RCP-%s-%s", at.UTC().Format("20060102"), suffix)
}
