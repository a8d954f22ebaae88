package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/redirectdispatch/dispatcher/internal/model"
)

// ClickStore is the upsert-atomic click counter collection (spec.md
// §4.4). Written by every replica concurrently; single-document
// upsert semantics make this safe without distributed locking.
type ClickStore interface {
	// IncrementClick upserts the counter for linkID, returning the
	// post-increment document.
	IncrementClick(ctx context.Context, linkID string) (model.ClickCounter, error)
	// Top returns the highest click counts, most-clicked first, used
	// by the /api/stats reporting handler.
	Top(ctx context.Context, limit int) ([]model.ClickCounter, error)
}

// PostgresClickStore implements ClickStore. Grounded on
// pkg/db/postgres/admin/index_progress.go's ON CONFLICT upsert idiom;
// the unique index on link_id (declared in Client.initSchema) is what
// makes concurrent first-time writes for the same linkId safe.
type PostgresClickStore struct {
	client *Client
}

// NewPostgresClickStore wraps client as a ClickStore.
func NewPostgresClickStore(client *Client) *PostgresClickStore {
	return &PostgresClickStore{client: client}
}

// IncrementClick implements ClickStore.
func (s *PostgresClickStore) IncrementClick(ctx context.Context, linkID string) (model.ClickCounter, error) {
	query := `
		INSERT INTO redirects_clicks (id, link_id, count, created_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (link_id) DO UPDATE SET
			count = redirects_clicks.count + 1
		RETURNING id, link_id, count, created_at
	`
	var out model.ClickCounter
	row := s.client.Pool.QueryRow(ctx, query, uuid.NewString(), linkID)
	if err := row.Scan(&out.ID, &out.LinkID, &out.Count, &out.CreatedAt); err != nil {
		return model.ClickCounter{}, fmt.Errorf("increment click %s: %w", linkID, err)
	}
	return out, nil
}

// Top implements ClickStore.
func (s *PostgresClickStore) Top(ctx context.Context, limit int) ([]model.ClickCounter, error) {
	query := `SELECT id, link_id, count, created_at FROM redirects_clicks ORDER BY count DESC LIMIT $1`
	rows, err := s.client.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top clicks: %w", err)
	}
	defer rows.Close()

	var out []model.ClickCounter
	for rows.Next() {
		var c model.ClickCounter
		if err := rows.Scan(&c.ID, &c.LinkID, &c.Count, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan click row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
