package dispatch_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/cache/cachetest"
	"github.com/redirectdispatch/dispatcher/internal/dispatch"
	"github.com/redirectdispatch/dispatcher/internal/model"
	"github.com/redirectdispatch/dispatcher/internal/registry"
)

func newEngine(t *testing.T, shared *cachetest.SharedCache) (*dispatch.Engine, *registry.Registry) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := registry.New(
		[]string{"appnewsdaily.com", "trendhubtoday.com", "quickreadnow.com"},
		nil,
	)
	front := cache.NewFront(shared, logger)
	return dispatch.New(shared, front, reg, logger), reg
}

func publishRanking(t *testing.T, shared *cachetest.SharedCache, sorted model.SortedDomainList, best model.BestLinkMap) {
	t.Helper()
	ctx := context.Background()

	sortedJSON := mustMarshal(t, sorted)
	require.NoError(t, shared.Set(ctx, cache.SortedDomainsKey, sortedJSON, time.Hour))

	bestJSON := mustMarshal(t, best)
	require.NoError(t, shared.Set(ctx, cache.BestLinksMapKey, bestJSON, time.Hour))
}

func TestDispatchFollowsRankedOrderThenSpillsOver(t *testing.T) {
	shared := cachetest.New()
	engine, _ := newEngine(t, shared)

	sorted := model.SortedDomainList{
		{Domain: "quickreadnow.com", URL: "https://quickreadnow.com/?p=9", PostID: "9", ECPM: 5.0},
		{Domain: "appnewsdaily.com", URL: "https://appnewsdaily.com/?p=1", PostID: "1", ECPM: 3.0},
	}
	best := model.BestLinkMap{
		"quickreadnow.com": {Domain: "quickreadnow.com", PostID: "9", URL: "https://quickreadnow.com/?p=9", ECPM: 5.0},
		"appnewsdaily.com": {Domain: "appnewsdaily.com", PostID: "1", URL: "https://appnewsdaily.com/?p=1", ECPM: 3.0},
	}
	publishRanking(t, shared, sorted, best)

	ctx := context.Background()
	now := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	r1, err := engine.Dispatch(ctx, dispatch.Request{RemoteAddr: "1.2.3.4", Now: now})
	require.NoError(t, err)
	require.Equal(t, "quickreadnow.com", r1.Domain)
	require.Equal(t, "best_quickreadnow.com_9", r1.LinkID)

	r2, err := engine.Dispatch(ctx, dispatch.Request{ForwardedFor: "5.6.7.8, 9.9.9.9", Now: now})
	require.NoError(t, err)
	require.Equal(t, "quickreadnow.com", r2.Domain, "a different visitor starts its own cursor at position 1")

	r1b, err := engine.Dispatch(ctx, dispatch.Request{RemoteAddr: "1.2.3.4", Now: now})
	require.NoError(t, err)
	require.Equal(t, "appnewsdaily.com", r1b.Domain, "same visitor advances to the next ranked domain")

	r1c, err := engine.Dispatch(ctx, dispatch.Request{RemoteAddr: "1.2.3.4", Now: now})
	require.NoError(t, err)
	require.Contains(t, r1c.LinkID, "random_", "visitor exhausted the ranking and spills over to round robin")
}

func TestDispatchFallsBackToRegistryOrderWithNoRanking(t *testing.T) {
	shared := cachetest.New()
	engine, reg := newEngine(t, shared)
	ctx := context.Background()
	now := time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC)

	result, err := engine.Dispatch(ctx, dispatch.Request{RemoteAddr: "10.0.0.1", Now: now})
	require.NoError(t, err)
	require.Equal(t, reg.At(0).Host, result.Domain)
	require.Contains(t, result.FinalURL, "/random")
}

func TestDispatchAppliesLanguagePrefixForInvertedDomain(t *testing.T) {
	shared := cachetest.New()
	logger := zaptest.NewLogger(t)
	reg := registry.New([]string{"appmobile4u.com"}, []string{"appmobile4u.com"})
	front := cache.NewFront(shared, logger)
	engine := dispatch.New(shared, front, reg, logger)

	sorted := model.SortedDomainList{
		{Domain: "appmobile4u.com", URL: "https://appmobile4u.com/?p=7", PostID: "7", ECPM: 1.0},
	}
	best := model.BestLinkMap{
		"appmobile4u.com": {Domain: "appmobile4u.com", PostID: "7", URL: "https://appmobile4u.com/?p=7", ECPM: 1.0},
	}
	publishRanking(t, shared, sorted, best)

	result, err := engine.Dispatch(context.Background(), dispatch.Request{RemoteAddr: "2.2.2.2", Now: time.Now()})
	require.NoError(t, err)
	require.Contains(t, result.FinalURL, "/en/")
}

func TestClientIPPrefersForwardedForThenRemoteAddrThenUnknown(t *testing.T) {
	require.Equal(t, "1.1.1.1", dispatch.Request{ForwardedFor: "1.1.1.1, 2.2.2.2"}.ClientIP())
	require.Equal(t, "3.3.3.3", dispatch.Request{RemoteAddr: "3.3.3.3"}.ClientIP())
	require.Equal(t, "unknown", dispatch.Request{}.ClientIP())
}

func mustMarshal(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
