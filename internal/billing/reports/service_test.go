package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinicore/internal/billing"
)

type memoryReportsRepo struct {
	stats       PeriodStats
	summary     PatientSummary
	outstanding []OutstandingInvoice
	pending     InsurancePending
	statsCalls  int
}

func (r *memoryReportsRepo) PeriodStats(ctx context.Context, from, to time.Time) (PeriodStats, error) {
	r.statsCalls++
	stats := r.stats
	stats.From = from
	stats.To = to
	return stats, nil
}

func (r *memoryReportsRepo) PatientSummary(ctx context.Context, patientID int64) (PatientSummary, error) {
	summary := r.summary
	summary.PatientID = patientID
	return summary, nil
}

func (r *memoryReportsRepo) ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error) {
	return r.outstanding, nil
}

func (r *memoryReportsRepo) InsurancePending(ctx context.Context) (InsurancePending, error) {
	return r.pending, nil
}

var asOf = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func outstandingFixture() []OutstandingInvoice {
	return []OutstandingInvoice{
		{InvoiceID: 1, DueDate: asOf.AddDate(0, 0, 5), AmountDue: 100, Status: billing.StatusIssued},
		{InvoiceID: 2, DueDate: asOf.AddDate(0, 0, -10), AmountDue: 200, Status: billing.StatusOverdue},
		{InvoiceID: 3, DueDate: asOf.AddDate(0, 0, -45), AmountDue: 300, Status: billing.StatusOverdue},
		{InvoiceID: 4, DueDate: asOf.AddDate(0, 0, -75), AmountDue: 400, Status: billing.StatusPartiallyPaid},
		{InvoiceID: 5, DueDate: asOf.AddDate(0, 0, -200), AmountDue: 500, Status: billing.StatusOverdue},
	}
}

func TestPeriodStats(t *testing.T) {
	ctx := context.Background()
	repo := &memoryReportsRepo{stats: PeriodStats{
		InvoiceCount:  3,
		TotalInvoiced: 660,
		TotalPaid:     220,
		CountsByStatus: map[billing.InvoiceStatus]int{
			billing.StatusPaid:   1,
			billing.StatusIssued: 2,
		},
	}}
	svc := NewService(repo, NewCache(nil, time.Minute))

	from := asOf.AddDate(0, -1, 0)
	stats, err := svc.PeriodStats(ctx, from, asOf)
	require.NoError(t, err)
	require.Equal(t, 3, stats.InvoiceCount)
	require.Equal(t, 660.0, stats.TotalInvoiced)
	require.Equal(t, 2, stats.CountsByStatus[billing.StatusIssued])
}

func TestPatientSummary(t *testing.T) {
	ctx := context.Background()
	repo := &memoryReportsRepo{summary: PatientSummary{InvoiceCount: 2, TotalBilled: 440, TotalPaid: 220, TotalOutstanding: 220}}
	svc := NewService(repo, NewCache(nil, time.Minute))

	summary, err := svc.PatientSummary(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), summary.PatientID)
	require.Equal(t, 220.0, summary.TotalOutstanding)
}

func TestOverdueListFiltersByDueDate(t *testing.T) {
	ctx := context.Background()
	repo := &memoryReportsRepo{outstanding: outstandingFixture()}
	svc := NewService(repo, NewCache(nil, time.Minute))

	overdue, err := svc.OverdueList(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 4)
	for _, o := range overdue {
		require.True(t, o.DueDate.Before(asOf))
	}
}

func TestAgingBuckets(t *testing.T) {
	ctx := context.Background()
	repo := &memoryReportsRepo{outstanding: outstandingFixture()}
	svc := NewService(repo, NewCache(nil, time.Minute))

	buckets, err := svc.Aging(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 100.0, buckets.Current)
	require.Equal(t, 200.0, buckets.Bucket30)
	require.Equal(t, 300.0, buckets.Bucket60)
	require.Equal(t, 400.0, buckets.Bucket90)
	require.Equal(t, 500.0, buckets.Bucket120)
}

func TestInsurancePending(t *testing.T) {
	ctx := context.Background()
	repo := &memoryReportsRepo{pending: InsurancePending{ClaimCount: 2, PendingAmount: 440}}
	svc := NewService(repo, NewCache(nil, time.Minute))

	pending, err := svc.InsurancePending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, pending.ClaimCount)
	require.Equal(t, 440.0, pending.PendingAmount)
}
