package billing

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the ledger endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.ListInvoices)
		r.Post("/", h.CreateInvoice)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetInvoice)
			r.Patch("/", h.UpdateInvoice)
			r.Delete("/", h.DeleteInvoice)
			r.Post("/issue", h.IssueInvoice)
			r.Post("/cancel", h.CancelInvoice)
			r.Post("/overdue", h.MarkOverdue)
			r.Post("/payments", h.RecordPayment)
			r.Post("/payments/{paymentID}/void", h.VoidPayment)
			r.Post("/claims", h.SubmitClaim)
			r.Post("/claims/resolve", h.ResolveClaim)
		})
	})
}
