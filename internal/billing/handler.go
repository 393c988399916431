package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/clinicore/internal/platform/httpx"
	"github.com/clinicore/clinicore/internal/shared"
)

// Handler exposes the ledger as a JSON API. Authentication and authorization
// are enforced upstream; the caller identifies the acting user via headers.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrClaimNotFound):
		httpx.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidStatus):
		httpx.UnprocessableEntity(w, err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Conflict(w, err.Error())
	default:
		h.logger.Error("billing request failed", slog.Any("error", err))
		httpx.Internal(w)
	}
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func invoiceID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

type invoiceListResponse struct {
	Invoices   []Invoice         `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.Create(r.Context(), req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListInvoicesRequest{Limit: 50}

	if v := q.Get("patient_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PatientID = &id
		}
	}
	if v := q.Get("doctor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.DoctorID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := InvoiceStatus(v)
		req.Status = &status
	}
	if t := parseDate(q.Get("date_from")); t != nil {
		req.DateFrom = t
	}
	if t := parseDate(q.Get("date_to")); t != nil {
		req.DateTo = t
	}
	page := 1
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := q.Get("per_page"); v != "" {
		if pp, err := strconv.Atoi(v); err == nil && pp > 0 && pp <= 1000 {
			req.Limit = pp
		}
	}
	req.Offset = (page - 1) * req.Limit

	invoices, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceListResponse{
		Invoices:   invoices,
		Pagination: shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.Update(r.Context(), id, req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.service.Issue(r.Context(), id, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.Cancel(r.Context(), id, req.Reason, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	if err := h.service.Delete(r.Context(), id, actorID(r)); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), id, req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

type voidPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	paymentID, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid payment id")
		return
	}
	var req voidPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.VoidPayment(r.Context(), id, paymentID, req.Reason, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	var req SubmitClaimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.SubmitClaim(r.Context(), id, req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) ResolveClaim(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	var req ResolveClaimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.ResolveClaim(r.Context(), id, req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.service.MarkOverdue(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
