package reports

import (
	"context"
	"fmt"
	"time"
)

// Service computes the reporting aggregates, optionally behind the cache.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// PeriodStats returns aggregates for invoices created inside the range.
func (s *Service) PeriodStats(ctx context.Context, from, to time.Time) (PeriodStats, error) {
	key, err := s.cache.BuildKey(ctx, "billing:reports:period",
		from.UTC().Format("20060102"), to.UTC().Format("20060102"))
	if err != nil {
		return PeriodStats{}, err
	}
	var stats PeriodStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		return s.repo.PeriodStats(ctx, from, to)
	})
	return stats, err
}

// PatientSummary returns one patient's billing aggregate.
func (s *Service) PatientSummary(ctx context.Context, patientID int64) (PatientSummary, error) {
	key, err := s.cache.BuildKey(ctx, "billing:reports:patient", fmt.Sprintf("%d", patientID))
	if err != nil {
		return PatientSummary{}, err
	}
	var summary PatientSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.repo.PatientSummary(ctx, patientID)
	})
	return summary, err
}

// OverdueList returns unsettled invoices past their due date as of the
// given instant.
func (s *Service) OverdueList(ctx context.Context, asOf time.Time) ([]OutstandingInvoice, error) {
	outstanding, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return nil, err
	}
	overdue := make([]OutstandingInvoice, 0)
	for _, o := range outstanding {
		if o.DueDate.Before(asOf) {
			overdue = append(overdue, o)
		}
	}
	return overdue, nil
}

// Aging groups outstanding balances into days-past-due buckets.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBuckets, error) {
	outstanding, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return AgingBuckets{}, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	var buckets AgingBuckets
	for _, o := range outstanding {
		days := int(asOf.Sub(o.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			buckets.Current += o.AmountDue
		case days <= 30:
			buckets.Bucket30 += o.AmountDue
		case days <= 60:
			buckets.Bucket60 += o.AmountDue
		case days <= 90:
			buckets.Bucket90 += o.AmountDue
		default:
			buckets.Bucket120 += o.AmountDue
		}
	}
	return buckets, nil
}

// InsurancePending summarises claims awaiting resolution.
func (s *Service) InsurancePending(ctx context.Context) (InsurancePending, error) {
	key, err := s.cache.BuildKey(ctx, "billing:reports:insurance")
	if err != nil {
		return InsurancePending{}, err
	}
	var pending InsurancePending
	err = s.cache.FetchJSON(ctx, key, &pending, func(ctx context.Context) (interface{}, error) {
		return s.repo.InsurancePending(ctx)
	})
	return pending, err
}
