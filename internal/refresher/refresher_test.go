package refresher_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/redirectdispatch/dispatcher/internal/analytics/analyticstest"
	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/cache/cachetest"
	"github.com/redirectdispatch/dispatcher/internal/model"
	"github.com/redirectdispatch/dispatcher/internal/refresher"
	"github.com/redirectdispatch/dispatcher/internal/registry"
	"github.com/redirectdispatch/dispatcher/internal/store/storetest"
)

func TestRunOnceKeepsHighestECPMPerDomain(t *testing.T) {
	repo := analyticstest.NewRepository([]model.AnalyticsRow{
		{Domain: "appnewsdaily.com", CustomValue: "1", ECPM: 2.0},
		{Domain: "appnewsdaily.com", CustomValue: "2", ECPM: 5.0},
		{Domain: "appnewsdaily.com", CustomValue: "3", ECPM: 5.0}, // tie, first seen wins
		{Domain: "trendhubtoday.com", CustomValue: "9", ECPM: 1.0},
	})
	shared := cachetest.New()
	links := storetest.NewLinkStore()
	reg := registry.New([]string{"appnewsdaily.com", "trendhubtoday.com"}, nil)

	r := refresher.New(repo, shared, links, reg, zaptest.NewLogger(t))

	best, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2", best["appnewsdaily.com"].PostID, "highest eCPM wins, ties keep the first seen")
	require.Equal(t, "9", best["trendhubtoday.com"].PostID)

	active := links.Active()
	require.Len(t, active, 2)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	repo := analyticstest.NewRepository([]model.AnalyticsRow{
		{Domain: "appnewsdaily.com", CustomValue: "1", ECPM: 2.0},
	})
	shared := cachetest.New()
	links := storetest.NewLinkStore()
	reg := registry.New([]string{"appnewsdaily.com"}, nil)

	r := refresher.New(repo, shared, links, reg, zaptest.NewLogger(t))

	first, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	second, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRunOnceLeavesCacheIntactWhenAnalyticsIsEmpty(t *testing.T) {
	repo := analyticstest.NewRepository(nil)
	shared := cachetest.New()
	links := storetest.NewLinkStore()
	reg := registry.New([]string{"appnewsdaily.com"}, nil)

	require.NoError(t, shared.Set(context.Background(), cache.BestLinksMapKey, `{"appnewsdaily.com":{"domain":"appnewsdaily.com"}}`, 0))

	r := refresher.New(repo, shared, links, reg, zaptest.NewLogger(t))
	best, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, best)

	raw, found, err := shared.Get(context.Background(), cache.BestLinksMapKey)
	require.NoError(t, err)
	require.True(t, found)
	var stillThere map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &stillThere))
	require.Contains(t, stillThere, "appnewsdaily.com")
}

func TestRunOnceReconciliationFailureDoesNotAbortPublish(t *testing.T) {
	repo := analyticstest.NewRepository([]model.AnalyticsRow{
		{Domain: "appnewsdaily.com", CustomValue: "1", ECPM: 2.0},
	})
	shared := cachetest.New()
	links := storetest.NewLinkStore()
	links.Fail = errDeliberate
	reg := registry.New([]string{"appnewsdaily.com"}, nil)

	r := refresher.New(repo, shared, links, reg, zaptest.NewLogger(t))
	best, err := r.RunOnce(context.Background())
	require.NoError(t, err, "link store failures are logged, not returned")
	require.Contains(t, best, "appnewsdaily.com")

	_, found, err := shared.Get(context.Background(), cache.BestLinksMapKey)
	require.NoError(t, err)
	require.True(t, found, "cache publish still happened despite the link store failure")
}

var errDeliberate = deliberateError{}

type deliberateError struct{}

func (deliberateError) Error() string { return "deliberate failure" }
