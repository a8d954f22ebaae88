package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redirectdispatch/dispatcher/internal/model"
)

// LinkStore mutates the {domain, url, status} link collection. Written
// only by the refresher (spec.md §4.1 step 6); dispatchers never
// write it. Interface kept separate from the Postgres implementation
// so tests can substitute an in-memory fake (spec.md §9).
type LinkStore interface {
	// DeactivateAll sets status=false on every currently-active record.
	DeactivateAll(ctx context.Context) error
	// UpsertActive inserts or reactivates the (domain, url) record and
	// marks it active.
	UpsertActive(ctx context.Context, domain, url string) error
	// List returns a page of link records, optionally filtered by
	// domain and/or status.
	List(ctx context.Context, domain string, status *bool, cursor string, limit int) ([]model.LinkRecord, error)
}

// PostgresLinkStore implements LinkStore. Grounded on
// pkg/db/postgres/admin/chain.go's ON CONFLICT upsert idiom.
type PostgresLinkStore struct {
	client *Client
}

// NewPostgresLinkStore wraps client as a LinkStore.
func NewPostgresLinkStore(client *Client) *PostgresLinkStore {
	return &PostgresLinkStore{client: client}
}

// DeactivateAll implements LinkStore.
func (s *PostgresLinkStore) DeactivateAll(ctx context.Context) error {
	_, err := s.client.Pool.Exec(ctx, `UPDATE redirects_links SET status = false, updated_at = now() WHERE status = true`)
	if err != nil {
		return fmt.Errorf("deactivate links: %w", err)
	}
	return nil
}

// UpsertActive implements LinkStore.
func (s *PostgresLinkStore) UpsertActive(ctx context.Context, domain, url string) error {
	query := `
		INSERT INTO redirects_links (id, domain, url, status, created_at, updated_at)
		VALUES ($1, $2, $3, true, now(), now())
		ON CONFLICT (domain, url) DO UPDATE SET
			status = true,
			updated_at = now()
	`
	_, err := s.client.Pool.Exec(ctx, query, uuid.NewString(), domain, url)
	if err != nil {
		return fmt.Errorf("upsert link %s/%s: %w", domain, url, err)
	}
	return nil
}

// List implements LinkStore, grounded on
// app/query/controller/pagination.go's limit/cursor/sort parsing
// (parsing happens in the httpapi layer; this just applies the bounds).
func (s *PostgresLinkStore) List(ctx context.Context, domain string, status *bool, cursor string, limit int) ([]model.LinkRecord, error) {
	query := `
		SELECT id, domain, url, status, created_at, updated_at
		FROM redirects_links
		WHERE ($1 = '' OR domain = $1)
		  AND ($2::boolean IS NULL OR status = $2)
		  AND ($3 = '' OR id > $3)
		ORDER BY id ASC
		LIMIT $4
	`
	rows, err := s.client.Pool.Query(ctx, query, domain, status, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []model.LinkRecord
	for rows.Next() {
		var rec model.LinkRecord
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&rec.ID, &rec.Domain, &rec.URL, &rec.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		rec.CreatedAt = createdAt
		rec.UpdatedAt = updatedAt
		out = append(out, rec)
	}
	return out, rows.Err()
}
