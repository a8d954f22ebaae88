// Package cache wraps the shared key-value cache (spec.md §6) and the
// per-process fronting cache that fronts it (spec.md §4.3).
package cache

import (
	"context"
	"strconv"
	"time"
)

// SharedCache is the contract this system needs from the remote
// key-value store: GET, SET with expiry, atomic INCR, EXPIRE, DEL, and
// PING. Out of scope per spec.md §1 — only its contract is specified
// here, so test doubles can substitute an in-memory implementation.
type SharedCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Cache keys, authoritative names and TTLs per spec.md §6.
const (
	BestLinksMapKey   = "redirect:best_links_map"
	SortedDomainsKey  = "redirect:sorted_domains"
	DomainCounterKey  = "redirect:domain:counter"
	TrafficVisitorKey = "redirect:traffic:visitors"

	RankingTTL = time.Hour
	CursorTTL  = time.Hour
	ReplayTTL  = 5 * time.Second

	// DomainCounterResetAt is the point at which redirect:domain:counter
	// wraps back to 1 (spec.md §3/§8).
	DomainCounterResetAt = 1_000_000
)

// VisitorCursorKey builds the per-(ip, hour-of-day) visitor cursor key.
func VisitorCursorKey(ip string, hourOfDay int) string {
	return "visitor_count:" + ip + ":" + strconv.Itoa(hourOfDay)
}

// RecentKey builds the anti-replay memo key for one IP.
func RecentKey(ip string) string {
	return "recent:" + ip
}
