// Package analytics provides read-only access to the analytics
// collection (spec.md §2, "out of scope except for its contract").
package analytics

import (
	"context"

	"github.com/redirectdispatch/dispatcher/internal/model"
)

// CustomKeyPostID is the analytics custom_key this system groups on
// (spec.md §4.1's input contract).
const CustomKeyPostID = "id_post_wp"

// Query describes one aggregation request to the analytics store.
type Query struct {
	Start       string // YYYY-MM-DD
	End         string // YYYY-MM-DD
	Domains     []string
	CustomKey   string
	GroupByCols []string // domain, custom_key, custom_value
}

// DistinctFields is the set of columns the reporting surface is
// allowed to ask for distinct values of (spec.md §4.5's allow-list).
var DistinctFields = map[string]bool{
	"domain":       true,
	"custom_key":   true,
	"custom_value": true,
}

// Repository is the narrow slice of the analytics "super-filter"
// pipeline this system actually uses: a single grouped aggregation,
// plus a distinct-values lookup for the reporting surface. Out of
// scope per spec.md §1 beyond this contract.
type Repository interface {
	Aggregate(ctx context.Context, q Query) ([]model.AnalyticsRow, error)
	Distinct(ctx context.Context, field string) ([]string, error)
	Ping(ctx context.Context) error
}
