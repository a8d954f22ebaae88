// Package recorder implements the click recorder (spec.md §4.4) and
// the anti-replay memo write (spec.md §4.2 step 9), both detached from
// the response path via a bounded worker pool.
package recorder

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/store"
)

// Recorder detaches click recording and anti-replay writes from the
// dispatch response path. Grounded on app/admin/controller/chain.go's
// pond.NewPool / group.Submit usage, adapted from a bounded
// parallel-fetch group into a long-lived fire-and-forget pool.
type Recorder struct {
	pool   pond.Pool
	clicks store.ClickStore
	shared cache.SharedCache
	logger *zap.Logger
}

// New builds a Recorder with a worker pool of the given size.
func New(poolSize int, clicks store.ClickStore, shared cache.SharedCache, logger *zap.Logger) *Recorder {
	if poolSize <= 0 {
		poolSize = 32
	}
	return &Recorder{
		pool:   pond.NewPool(poolSize, pond.WithQueueSize(poolSize*32)),
		clicks: clicks,
		shared: shared,
		logger: logger,
	}
}

// RecordClick implements spec.md §4.2 step 8: fire-and-forget upsert
// of the click counter. Does not block the caller; failures are
// logged only.
func (r *Recorder) RecordClick(linkID string) {
	_, submitted := r.pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := r.clicks.IncrementClick(ctx, linkID); err != nil {
			r.logger.Warn("failed to record click", zap.String("linkId", linkID), zap.Error(err))
		}
	})
	if !submitted {
		r.logger.Warn("click recorder pool saturated, dropping click record", zap.String("linkId", linkID))
	}
}

// RecordReplayMemo implements spec.md §4.2 step 9: fire-and-forget
// write of the last final URL served to this IP, TTL 5s.
func (r *Recorder) RecordReplayMemo(ip, finalURL string) {
	_, submitted := r.pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.shared.Set(ctx, cache.RecentKey(ip), finalURL, cache.ReplayTTL); err != nil {
			r.logger.Warn("failed to write anti-replay memo", zap.String("ip", ip), zap.Error(err))
		}
	})
	if !submitted {
		r.logger.Warn("click recorder pool saturated, dropping anti-replay memo", zap.String("ip", ip))
	}
}

// Stop drains in-flight tasks up to the given timeout. New submissions
// after Stop are rejected and logged.
func (r *Recorder) Stop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		r.pool.StopAndWait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		r.logger.Warn("recorder pool did not drain before timeout")
	}
}
