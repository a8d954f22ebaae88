// Package model holds the data shapes shared across the refresher,
// dispatch engine, cache, analytics, and store packages (spec.md §3).
package model

import "time"

// AnalyticsRow is one row returned by the analytics repository's
// per-domain, per-post aggregation. Numeric fields are parsed to
// float64 once at ingest rather than carried as loose "any" values
// (spec.md §9's re-architecture note).
type AnalyticsRow struct {
	Domain      string
	CustomKey   string
	CustomValue string
	Impressions float64
	Clicks      float64
	Revenue     float64
	ECPM        float64
}

// BestLinkEntry is the highest-eCPM post for one domain, as published
// by the refresher.
type BestLinkEntry struct {
	Domain string  `json:"domain"`
	PostID string  `json:"postId"`
	URL    string  `json:"url"`
	ECPM   float64 `json:"ecpm"`
}

// BestLinkMap maps domain hostname to its winning entry.
type BestLinkMap map[string]BestLinkEntry

// SortedDomainEntry is one element of the eCPM-descending domain
// ranking.
type SortedDomainEntry struct {
	Domain string  `json:"domain"`
	URL    string  `json:"url"`
	PostID string  `json:"postId"`
	ECPM   float64 `json:"ecpm"`
}

// SortedDomainList is BestLinkMap's entries sorted by ECPM descending.
type SortedDomainList []SortedDomainEntry

// LinkRecord is a persisted row in the link store, reconciled by the
// refresher on every run (spec.md §3).
type LinkRecord struct {
	ID        string
	Domain    string
	URL       string
	Status    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClickCounter is the upserted, monotonically increasing click count
// for one link_id (spec.md §3/§4.4).
type ClickCounter struct {
	ID        string
	LinkID    string
	Count     int64
	CreatedAt time.Time
}
