// Package dispatch implements the per-request selection algorithm
// (spec.md §4.2): visitor-scoped sequential assignment across domains
// ordered by eCPM, with a spill-over path once a visitor has already
// traversed every domain this hour.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/model"
	"github.com/redirectdispatch/dispatcher/internal/registry"
)

// EmergencyFallbackURL is where every unexpected error on the dispatch
// path redirects to (spec.md §4.2's "Emergency fallback").
const EmergencyFallbackURL = "https://useuapp.com/random"

// Request is everything the dispatch engine needs from the inbound
// HTTP request, decoupled from net/http so the algorithm is testable
// without standing up a server.
type Request struct {
	ForwardedFor string // X-Forwarded-For header value, may be empty
	RemoteAddr   string // socket remote address, may be empty
	Language     string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string
	UTMTerm      string
	UTMContent   string
	FBClid       string
	GClid        string
	Now          time.Time // request time; callers pass time.Now()
}

// Result is what the dispatch engine hands back to the HTTP layer for
// a 302 response.
type Result struct {
	FinalURL string
	LinkID   string
	Domain   string
	PostID   string
}

// ClientIP implements spec.md §4.2 step 2: the first comma-separated
// token of X-Forwarded-For if present, otherwise the socket remote
// address, otherwise "unknown".
func (r Request) ClientIP() string {
	if r.ForwardedFor != "" {
		parts := strings.SplitN(r.ForwardedFor, ",", 2)
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Engine is the dispatch engine. Grounded directly on spec.md §4.2's
// numbered steps; no teacher analogue exists for the selection
// algorithm itself.
type Engine struct {
	shared   cache.SharedCache
	front    *cache.Front
	registry *registry.Registry
	logger   *zap.Logger
}

// New builds an Engine.
func New(shared cache.SharedCache, front *cache.Front, reg *registry.Registry, logger *zap.Logger) *Engine {
	return &Engine{shared: shared, front: front, registry: reg, logger: logger}
}

// Dispatch runs spec.md §4.2 steps 2-7 and returns the (finalUrl,
// linkId) pair the caller should 302 to. Step 1 (the favicon
// short-circuit) and steps 8-9 (click recording, anti-replay memo) are
// the HTTP layer's responsibility — see internal/httpapi and
// internal/recorder — so this function stays pure and easy to test.
func (e *Engine) Dispatch(ctx context.Context, req Request) (Result, error) {
	ip := req.ClientIP()
	hour := req.Now.Hour()

	visit, err := e.incrementVisitorCursor(ctx, ip, hour)
	if err != nil {
		return Result{}, fmt.Errorf("increment visitor cursor: %w", err)
	}

	sorted := e.front.SortedDomains(ctx)
	best := e.front.BestLinkMap(ctx)

	domain, url, postID, linkID, err := e.selectTarget(ctx, visit, sorted, best)
	if err != nil {
		return Result{}, err
	}

	finalURL, err := applyLanguagePrefix(url, req.Language, e.registry.IsInverted(domain))
	if err != nil {
		return Result{}, fmt.Errorf("apply language prefix: %w", err)
	}

	finalURL, err = decorate(finalURL, requestUTM(
		req.UTMSource, req.UTMMedium, req.UTMCampaign, req.UTMTerm, req.UTMContent, req.FBClid, req.GClid, linkID,
	))
	if err != nil {
		return Result{}, fmt.Errorf("decorate utm params: %w", err)
	}

	return Result{FinalURL: finalURL, LinkID: linkID, Domain: domain, PostID: postID}, nil
}

// incrementVisitorCursor implements spec.md §4.2 step 3.
func (e *Engine) incrementVisitorCursor(ctx context.Context, ip string, hourOfDay int) (int64, error) {
	key := cache.VisitorCursorKey(ip, hourOfDay)
	visit, err := e.shared.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if visit == 1 {
		if err := e.shared.Expire(ctx, key, cache.CursorTTL); err != nil {
			e.logger.Warn("failed to set visitor cursor ttl", zap.String("ip", ip), zap.Error(err))
		}
	}
	return visit, nil
}

// selectTarget implements spec.md §4.2 step 5: choose the ranked
// domain at position visit-1 if the visitor hasn't exhausted the
// ranking yet; otherwise fall back to registry order (when there is
// no ranking at all) or the global round-robin spill.
func (e *Engine) selectTarget(ctx context.Context, visit int64, sorted model.SortedDomainList, best model.BestLinkMap) (domain, finalURL, postID, linkID string, err error) {
	n := int64(len(sorted))

	if n > 0 && visit <= n {
		entry := sorted[visit-1]
		return entry.Domain, entry.URL, entry.PostID, bestLinkID(entry.Domain, entry.PostID), nil
	}

	regLen := int64(e.registry.Len())

	if n == 0 && visit <= regLen {
		d := e.registry.At(int(visit - 1))
		if entry, ok := best[d.Host]; ok {
			return d.Host, entry.URL, entry.PostID, bestLinkID(d.Host, entry.PostID), nil
		}
		return d.Host, fmt.Sprintf("https://%s/random", d.Host), "", fallbackLinkID(d.Host), nil
	}

	return e.spill(ctx)
}

// spill implements spec.md §4.2 step 5's final branch: advance the
// global redirect:domain:counter and pick (counter-1) mod len(registry).
func (e *Engine) spill(ctx context.Context) (domain, finalURL, postID, linkID string, err error) {
	counter, err := e.shared.Incr(ctx, cache.DomainCounterKey)
	if err != nil {
		return "", "", "", "", fmt.Errorf("increment domain counter: %w", err)
	}
	if counter > cache.DomainCounterResetAt {
		if err := e.shared.Set(ctx, cache.DomainCounterKey, "1", 0); err != nil {
			e.logger.Warn("failed to reset domain counter", zap.Error(err))
		}
		counter = 1
	}

	idx := (counter - 1) % int64(e.registry.Len())
	d := e.registry.At(int(idx))

	return d.Host, fmt.Sprintf("https://%s/random", d.Host), "", randomLinkID(d.Host), nil
}

func bestLinkID(domain, postID string) string {
	return "best_" + domain + "_" + postID
}

func fallbackLinkID(domain string) string {
	return "fallback_" + domain
}

func randomLinkID(domain string) string {
	return "random_" + domain
}
