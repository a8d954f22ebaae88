package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/model"
)

// freshness is how long a local copy of a ranking key is trusted
// before the fronting cache re-reads the shared cache (spec.md §4.3).
const freshness = 60 * time.Second

// frontEntry is one cached, freshness-windowed copy of a ranking key.
type frontEntry struct {
	raw       string
	fetchedAt time.Time
}

// Front fronts the shared cache's two ranking keys with a per-process
// copy, grounded on the teacher's CachedQueueStats /
// NewQueueStatsCache freshness-window pattern
// (app/admin/types/cache_queue_stats.go).
type Front struct {
	shared SharedCache
	logger *zap.Logger
	data   *xsync.MapOf[string, frontEntry]
}

// NewFront wraps shared with a 60-second local freshness window.
func NewFront(shared SharedCache, logger *zap.Logger) *Front {
	return &Front{
		shared: shared,
		logger: logger,
		data:   xsync.NewMapOf[string, frontEntry](),
	}
}

// BestLinkMap returns the current best-link map, reading through to
// the shared cache only when the local copy is stale or absent. If the
// shared read fails or is empty, the last known local copy is
// returned, which may be arbitrarily stale.
func (f *Front) BestLinkMap(ctx context.Context) model.BestLinkMap {
	raw := f.read(ctx, BestLinksMapKey)
	if raw == "" {
		return model.BestLinkMap{}
	}
	var m model.BestLinkMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		f.logger.Warn("failed to decode best link map", zap.Error(err))
		return model.BestLinkMap{}
	}
	return m
}

// SortedDomains returns the current eCPM-sorted domain list, same
// freshness semantics as BestLinkMap.
func (f *Front) SortedDomains(ctx context.Context) model.SortedDomainList {
	raw := f.read(ctx, SortedDomainsKey)
	if raw == "" {
		return nil
	}
	var list model.SortedDomainList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		f.logger.Warn("failed to decode sorted domain list", zap.Error(err))
		return nil
	}
	return list
}

// read returns the freshest known value for key: the local copy if
// it's younger than the freshness window, otherwise a re-read from the
// shared cache (falling back to the stale local copy on failure).
func (f *Front) read(ctx context.Context, key string) string {
	if entry, ok := f.data.Load(key); ok && time.Since(entry.fetchedAt) < freshness {
		return entry.raw
	}

	raw, found, err := f.shared.Get(ctx, key)
	if err != nil || !found {
		if err != nil {
			f.logger.Warn("shared cache read failed, serving stale copy",
				zap.String("key", key), zap.Error(err))
		}
		if entry, ok := f.data.Load(key); ok {
			return entry.raw
		}
		return ""
	}

	f.data.Store(key, frontEntry{raw: raw, fetchedAt: time.Now()})
	return raw
}

// Invalidate drops both local copies, forcing the next read to go
// through to the shared cache. Used by the manual refresh endpoint so
// a freshly published ranking is visible immediately on this process.
func (f *Front) Invalidate() {
	f.data.Delete(BestLinksMapKey)
	f.data.Delete(SortedDomainsKey)
}
