package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/clinicore/internal/platform/httpx"
)

// Handler exposes the reporting surface as read-only JSON endpoints.
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

// MountRoutes attaches report endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/period", h.Period)
		r.Get("/patients/{patientID}", h.Patient)
		r.Get("/overdue", h.Overdue)
		r.Get("/aging", h.Aging)
		r.Get("/insurance/pending", h.Insurance)
	})
}

func (h *Handler) Period(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		httpx.BadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		httpx.BadRequest(w, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		httpx.BadRequest(w, "to must not precede from")
		return
	}
	stats, err := h.service.PeriodStats(r.Context(), from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		h.logger.Error("period stats", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Patient(w http.ResponseWriter, r *http.Request) {
	patientID, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid patient id")
		return
	}
	summary, err := h.service.PatientSummary(r.Context(), patientID)
	if err != nil {
		h.logger.Error("patient summary", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Overdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.service.OverdueList(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("overdue list", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, overdue)
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.Aging(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("aging buckets", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, buckets)
}

func (h *Handler) Insurance(w http.ResponseWriter, r *http.Request) {
	pending, err := h.service.InsurancePending(r.Context())
	if err != nil {
		h.logger.Error("insurance pending", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, pending)
}
