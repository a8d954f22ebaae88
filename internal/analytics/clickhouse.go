package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/model"
	"github.com/redirectdispatch/dispatcher/internal/retry"
)

// ClickHouseRepository implements Repository against a ClickHouse
// analytics database. Grounded on pkg/db/clickhouse.go's connection
// bootstrap and pkg/db/analytics.go's GROUP BY query shape, trimmed to
// a single read-only database (no replica-strategy parsing, no
// multi-database bootstrap).
type ClickHouseRepository struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewClickHouseRepository dials ClickHouse at dsn, retrying with
// backoff until the first successful ping.
func NewClickHouseRepository(ctx context.Context, dsn string, logger *zap.Logger) (*ClickHouseRepository, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	opts.DialTimeout = 10 * time.Second
	opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var conn driver.Conn
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxRetries = 5
	if err := retry.WithBackoff(connCtx, retryConfig, logger, "clickhouse_connect", func() error {
		c, err := clickhouse.Open(opts)
		if err != nil {
			return err
		}
		if err := c.Ping(connCtx); err != nil {
			return err
		}
		conn = c
		return nil
	}); err != nil {
		return nil, err
	}

	logger.Info("connected to clickhouse analytics store")

	return &ClickHouseRepository{conn: conn, logger: logger}, nil
}

// Close closes the underlying connection.
func (r *ClickHouseRepository) Close() error {
	return r.conn.Close()
}

// Ping checks connectivity, used by /health/detailed.
func (r *ClickHouseRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

type aggregateRow struct {
	Domain      string   `ch:"domain"`
	CustomKey   string   `ch:"custom_key"`
	CustomValue string   `ch:"custom_value"`
	Impressions float64  `ch:"impressions"`
	Clicks      float64  `ch:"clicks"`
	Revenue     float64  `ch:"revenue"`
	ECPM        *float64 `ch:"ecpm"`
}

// Aggregate runs the domain/custom_key/custom_value GROUP BY spec.md
// §4.1 calls for, returning rows with at least
// {domain, custom_value, ecpm}. Missing ecpm values are treated as 0,
// the string-to-double parsing the spec calls for happens once here,
// not at every call site.
func (r *ClickHouseRepository) Aggregate(ctx context.Context, q Query) ([]model.AnalyticsRow, error) {
	group := strings.Join(q.GroupByCols, ", ")
	query := fmt.Sprintf(`
		SELECT
			domain,
			custom_key,
			custom_value,
			SUM(impressions) AS impressions,
			SUM(clicks) AS clicks,
			SUM(revenue) AS revenue,
			(SUM(revenue) / nullIf(SUM(impressions), 0)) * 1000 AS ecpm
		FROM analytics
		WHERE date >= ? AND date <= ?
		  AND custom_key = ?
		  AND domain IN (?)
		GROUP BY %s
	`, group)

	var rows []aggregateRow
	if err := r.conn.Select(ctx, &rows, query, q.Start, q.End, q.CustomKey, q.Domains); err != nil {
		return nil, fmt.Errorf("analytics aggregate query failed: %w", err)
	}

	out := make([]model.AnalyticsRow, 0, len(rows))
	for _, row := range rows {
		ecpm := 0.0
		if row.ECPM != nil {
			ecpm = *row.ECPM
		}
		out = append(out, model.AnalyticsRow{
			Domain:      row.Domain,
			CustomKey:   row.CustomKey,
			CustomValue: row.CustomValue,
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			Revenue:     row.Revenue,
			ECPM:        ecpm,
		})
	}
	return out, nil
}

// Distinct returns distinct values of field. field must be a member of
// DistinctFields — callers are expected to validate before calling.
func (r *ClickHouseRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	if !DistinctFields[field] {
		return nil, fmt.Errorf("field %q is not a distinct-able analytics column", field)
	}

	query := fmt.Sprintf(`SELECT DISTINCT %s AS value FROM analytics ORDER BY value`, field)

	var values []string
	if err := r.conn.Select(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("analytics distinct query failed: %w", err)
	}
	return values, nil
}
