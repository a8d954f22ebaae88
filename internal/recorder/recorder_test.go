package recorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/cache/cachetest"
	"github.com/redirectdispatch/dispatcher/internal/recorder"
	"github.com/redirectdispatch/dispatcher/internal/store/storetest"
)

func TestRecordClickEventuallyIncrementsTheCounter(t *testing.T) {
	clicks := storetest.NewClickStore()
	shared := cachetest.New()
	r := recorder.New(4, clicks, shared, zaptest.NewLogger(t))

	r.RecordClick("best_appnewsdaily.com_1")
	r.Stop(2 * time.Second)

	require.Equal(t, int64(1), clicks.Count("best_appnewsdaily.com_1"))
}

func TestRecordReplayMemoEventuallyWritesTheSharedCache(t *testing.T) {
	clicks := storetest.NewClickStore()
	shared := cachetest.New()
	r := recorder.New(4, clicks, shared, zaptest.NewLogger(t))

	r.RecordReplayMemo("1.2.3.4", "https://appnewsdaily.com/?p=1")
	r.Stop(2 * time.Second)

	value, found, err := shared.Get(context.Background(), cache.RecentKey("1.2.3.4"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "https://appnewsdaily.com/?p=1", value)
}
