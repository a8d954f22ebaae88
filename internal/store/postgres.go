// Package store holds the link store and click counter store: a small
// document collection holding {domain, url, status} records, and an
// upserted-per-click counter collection (spec.md §2/§3).
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/retry"
)

// Client wraps a Postgres connection pool. Grounded on
// pkg/db/postgres/client.go, trimmed to the single pool this system
// needs (no per-component pool sizing).
type Client struct {
	Pool   *pgxpool.Pool
	Logger *zap.Logger
}

// NewClient dials Postgres at dsn, retrying with backoff, and
// initializes the redirects_links / redirects_clicks tables.
func NewClient(ctx context.Context, dsn string, logger *zap.Logger) (*Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_URL: %w", err)
	}
	poolCfg.MinConns = 2
	poolCfg.MaxConns = 20
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	var pool *pgxpool.Pool
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxRetries = 5
	if err := retry.WithBackoff(connCtx, retryConfig, logger, "postgres_connect", func() error {
		p, err := pgxpool.NewWithConfig(connCtx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(connCtx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return nil, err
	}

	client := &Client{Pool: pool, Logger: logger}
	if err := client.initSchema(ctx); err != nil {
		return nil, err
	}

	logger.Info("connected to postgres document store")

	return client, nil
}

// Close closes the connection pool.
func (c *Client) Close() {
	c.Pool.Close()
}

// Ping checks connectivity, used by /health/detailed.
func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Client) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS redirects_links (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			url TEXT NOT NULL,
			status BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (domain, url)
		)`,
		`CREATE TABLE IF NOT EXISTS redirects_clicks (
			id TEXT PRIMARY KEY,
			link_id TEXT NOT NULL UNIQUE,
			count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
