// Package analyticstest provides an in-memory analytics.Repository
// double for tests.
package analyticstest

import (
	"context"

	"github.com/redirectdispatch/dispatcher/internal/analytics"
	"github.com/redirectdispatch/dispatcher/internal/model"
)

// Repository is an in-memory analytics.Repository double that returns
// a fixed, caller-supplied set of rows.
type Repository struct {
	Rows         []model.AnalyticsRow
	Distincts    map[string][]string
	AggregateErr error
	PingErr      error
}

// NewRepository returns a Repository seeded with rows.
func NewRepository(rows []model.AnalyticsRow) *Repository {
	return &Repository{Rows: rows, Distincts: map[string][]string{}}
}

func (r *Repository) Aggregate(ctx context.Context, q analytics.Query) ([]model.AnalyticsRow, error) {
	if r.AggregateErr != nil {
		return nil, r.AggregateErr
	}
	return r.Rows, nil
}

func (r *Repository) Distinct(ctx context.Context, field string) ([]string, error) {
	return r.Distincts[field], nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.PingErr
}
