// Package insurance exposes the provider coverage lookup consumed by the
// billing ledger.
package insurance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lookup answers whether a patient currently holds active coverage.
type Lookup interface {
	HasActiveCoverage(ctx context.Context, patientID int64) (bool, error)
}

// Repository provides PostgreSQL backed coverage lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasActiveCoverage reports whether the patient has at least one policy
// active as of now.
func (r *Repository) HasActiveCoverage(ctx context.Context, patientID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
  SELECT 1 FROM insurance_policies
  WHERE patient_id = $1 AND active AND (expires_at IS NULL OR expires_at > NOW())
)`, patientID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Static is a fixed in-memory lookup used in tests and local setups.
type Static struct {
	Covered map[int64]bool
}

// HasActiveCoverage returns the configured coverage flag.
func (s *Static) HasActiveCoverage(ctx context.Context, patientID int64) (bool, error) {
	return s.Covered[patientID], nil
}
