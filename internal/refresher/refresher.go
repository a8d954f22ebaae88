// Package refresher implements the ranking refresher (spec.md §4.1):
// the scheduled job that computes, per domain, the highest-eCPM post
// and publishes the result to the shared cache and link store.
package refresher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/analytics"
	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/model"
	"github.com/redirectdispatch/dispatcher/internal/registry"
	"github.com/redirectdispatch/dispatcher/internal/store"
)

// Refresher owns the refresh algorithm. Grounded on
// app/controller/app.go's Reconcile: bounded per-run context, a single
// entry point (RunOnce) shared by the startup run and the cron
// schedule, logged-and-swallowed failures.
type Refresher struct {
	analytics analytics.Repository
	shared    cache.SharedCache
	links     store.LinkStore
	registry  *registry.Registry
	logger    *zap.Logger
}

// New builds a Refresher.
func New(repo analytics.Repository, shared cache.SharedCache, links store.LinkStore, reg *registry.Registry, logger *zap.Logger) *Refresher {
	return &Refresher{analytics: repo, shared: shared, links: links, registry: reg, logger: logger}
}

// RunOnce executes one refresh pass: spec.md §4.1 steps 1-6. It is
// idempotent — running it twice back-to-back against stable analytics
// produces the same BestLinkMap (spec.md §8).
func (r *Refresher) RunOnce(ctx context.Context) (model.BestLinkMap, error) {
	today := time.Now().UTC().Format("2006-01-02")

	rows, err := r.analytics.Aggregate(ctx, analytics.Query{
		Start:       today,
		End:         today,
		Domains:     r.registry.Hosts(),
		CustomKey:   analytics.CustomKeyPostID,
		GroupByCols: []string{"domain", "custom_key", "custom_value"},
	})
	if err != nil {
		r.logger.Error("analytics aggregation failed, leaving previous cache state intact", zap.Error(err))
		return nil, fmt.Errorf("analytics aggregate: %w", err)
	}

	if len(rows) == 0 {
		r.logger.Info("analytics aggregation returned no rows, leaving previous cache state intact")
		return nil, nil
	}

	best := buildBestByDomain(rows)
	sorted := sortedDomains(best)

	if err := r.publish(ctx, best, sorted); err != nil {
		r.logger.Error("cache publish failed, replica retains previous in-memory copies", zap.Error(err))
		return nil, fmt.Errorf("publish rankings: %w", err)
	}

	r.reconcileLinks(ctx, best)

	return best, nil
}

// buildBestByDomain implements spec.md §4.1 step 2: iterate rows, keep
// the strictly-greatest-eCPM row per domain, ties keep the first seen.
func buildBestByDomain(rows []model.AnalyticsRow) model.BestLinkMap {
	best := make(model.BestLinkMap)
	for _, row := range rows {
		if row.Domain == "" || row.CustomValue == "" {
			continue
		}
		existing, ok := best[row.Domain]
		if ok && row.ECPM <= existing.ECPM {
			continue
		}
		best[row.Domain] = model.BestLinkEntry{
			Domain: row.Domain,
			PostID: row.CustomValue,
			URL:    composeURL(row.Domain, row.CustomValue),
			ECPM:   row.ECPM,
		}
	}
	return best
}

// composeURL implements spec.md §4.1 step 3.
func composeURL(domain, postID string) string {
	return fmt.Sprintf("https://%s/?p=%s", domain, url.QueryEscape(postID))
}

// sortedDomains implements spec.md §4.1 step 4: sort bestByDomain
// entries by ecpm descending. Go map iteration order is randomized per
// run, which is fine — spec.md only requires tie-breaks be stable
// *within* one refresh, and sort.SliceStable preserves whatever
// iteration order this run produced for equal-eCPM entries.
func sortedDomains(best model.BestLinkMap) model.SortedDomainList {
	out := make(model.SortedDomainList, 0, len(best))
	for domain, entry := range best {
		out = append(out, model.SortedDomainEntry{
			Domain: domain,
			URL:    entry.URL,
			PostID: entry.PostID,
			ECPM:   entry.ECPM,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ECPM > out[j].ECPM })
	return out
}

// publish implements spec.md §4.1 step 5. Both writes must succeed or
// the refresh is partial.
func (r *Refresher) publish(ctx context.Context, best model.BestLinkMap, sorted model.SortedDomainList) error {
	bestJSON, err := json.Marshal(best)
	if err != nil {
		return fmt.Errorf("marshal best link map: %w", err)
	}
	sortedJSON, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshal sorted domain list: %w", err)
	}

	if err := r.shared.Set(ctx, cache.BestLinksMapKey, string(bestJSON), cache.RankingTTL); err != nil {
		return fmt.Errorf("publish best link map: %w", err)
	}
	if err := r.shared.Set(ctx, cache.SortedDomainsKey, string(sortedJSON), cache.RankingTTL); err != nil {
		return fmt.Errorf("publish sorted domain list: %w", err)
	}
	return nil
}

// reconcileLinks implements spec.md §4.1 step 6. Best-effort: failures
// are logged but never abort the cache publication that already
// happened above.
func (r *Refresher) reconcileLinks(ctx context.Context, best model.BestLinkMap) {
	if err := r.links.DeactivateAll(ctx); err != nil {
		r.logger.Warn("failed to deactivate previous links", zap.Error(err))
	}
	for _, entry := range best {
		if err := r.links.UpsertActive(ctx, entry.Domain, entry.URL); err != nil {
			r.logger.Warn("failed to upsert active link",
				zap.String("domain", entry.Domain), zap.String("url", entry.URL), zap.Error(err))
		}
	}
}
