package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/clinicore/clinicore/internal/billing"
)

// OverdueScanJob sweeps open invoices past their due date and flips them to
// overdue through the ledger service.
type OverdueScanJob struct {
	repo    billing.Repository
	service *billing.Service
	logger  *slog.Logger
}

// NewOverdueScanJob constructs the job.
func NewOverdueScanJob(repo billing.Repository, service *billing.Service, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{repo: repo, service: service, logger: logger}
}

// Handle processes TaskTypeOverdueScan tasks. Failures on a single invoice
// are logged and skipped so one bad row never blocks the sweep.
func (j *OverdueScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()
	ids, err := j.repo.ListDueCandidates(ctx, start)
	if err != nil {
		return err
	}

	var flipped atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := j.service.MarkOverdue(ctx, id); err != nil {
				// A payment or cancellation may land between the candidate
				// query and the status flip.
				if errors.Is(err, billing.ErrInvalidStatus) || errors.Is(err, billing.ErrConflict) {
					return nil
				}
				j.logger.Warn("overdue scan: mark failed",
					slog.Int64("invoice_id", id),
					slog.Any("error", err))
				return nil
			}
			flipped.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	j.logger.Info("overdue scan complete",
		slog.Int("candidates", len(ids)),
		slog.Int64("flipped", flipped.Load()),
		slog.Duration("took", time.Since(start)))
	return nil
}
