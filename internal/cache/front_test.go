package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/cache/cachetest"
)

func TestFrontReadsThroughOnFirstAccess(t *testing.T) {
	shared := cachetest.New()
	ctx := context.Background()
	require.NoError(t, shared.Set(ctx, cache.BestLinksMapKey, `{"appnewsdaily.com":{"domain":"appnewsdaily.com","postId":"1","ecpm":2}}`, time.Hour))

	front := cache.NewFront(shared, zaptest.NewLogger(t))
	m := front.BestLinkMap(ctx)
	require.Contains(t, m, "appnewsdaily.com")
	require.Equal(t, "1", m["appnewsdaily.com"].PostID)
}

func TestFrontServesStaleCopyWhenSharedCacheFails(t *testing.T) {
	shared := cachetest.New()
	ctx := context.Background()
	require.NoError(t, shared.Set(ctx, cache.SortedDomainsKey, `[{"domain":"appnewsdaily.com","postId":"1","ecpm":2}]`, time.Hour))

	front := cache.NewFront(shared, zaptest.NewLogger(t))
	first := front.SortedDomains(ctx)
	require.Len(t, first, 1)

	shared.GetErr = errBoom
	shared.Del(ctx, cache.SortedDomainsKey)

	second := front.SortedDomains(ctx)
	require.Len(t, second, 1, "a shared cache failure should fall back to the last known local copy")
}

func TestFrontInvalidateForcesReread(t *testing.T) {
	shared := cachetest.New()
	ctx := context.Background()
	require.NoError(t, shared.Set(ctx, cache.BestLinksMapKey, `{"a.com":{"domain":"a.com","postId":"1","ecpm":1}}`, time.Hour))

	front := cache.NewFront(shared, zaptest.NewLogger(t))
	_ = front.BestLinkMap(ctx)

	require.NoError(t, shared.Set(ctx, cache.BestLinksMapKey, `{"a.com":{"domain":"a.com","postId":"2","ecpm":9}}`, time.Hour))
	front.Invalidate()

	m := front.BestLinkMap(ctx)
	require.Equal(t, "2", m["a.com"].PostID, "invalidate should force a fresh read even within the freshness window")
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
