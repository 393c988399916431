package billing

// Totals carries the derived monetary fields of an invoice.
type Totals struct {
	Subtotal    float64
	TaxAmount   float64
	TotalAmount float64
}

// ItemTotal computes a line total: quantity x unit price minus the line
// discount, clamped to zero.
func ItemTotal(quantity int, unitPrice, discount float64) float64 {
	total := float64(quantity)*unitPrice - discount
	if total < 0 {
		return 0
	}
	return total
}

// ComputeTotals recomputes subtotal, tax and grand total from line items,
// the tax rate (percent) and the invoice-level discount. It is the single
// source of truth for derived monetary fields; stored totals are never
// trusted on a mutation path. The items slice is updated in place so each
// TotalPrice stays consistent with its inputs.
func ComputeTotals(items []BillingItem, taxRate, discountAmount float64) Totals {
	var subtotal float64
	for i := range items {
		items[i].TotalPrice = ItemTotal(items[i].Quantity, items[i].UnitPrice, items[i].DiscountAmount)
		subtotal += items[i].TotalPrice
	}
	taxAmount := subtotal * taxRate / 100
	total := subtotal + taxAmount - discountAmount
	if total < 0 {
		total = 0
	}
	return Totals{Subtotal: subtotal, TaxAmount: taxAmount, TotalAmount: total}
}
