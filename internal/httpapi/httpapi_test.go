package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/redirectdispatch/dispatcher/internal/analytics/analyticstest"
	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/cache/cachetest"
	"github.com/redirectdispatch/dispatcher/internal/config"
	"github.com/redirectdispatch/dispatcher/internal/dispatch"
	"github.com/redirectdispatch/dispatcher/internal/httpapi"
	"github.com/redirectdispatch/dispatcher/internal/recorder"
	"github.com/redirectdispatch/dispatcher/internal/registry"
	"github.com/redirectdispatch/dispatcher/internal/store/storetest"
)

func newTestApp(t *testing.T) *httpapi.App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	shared := cachetest.New()
	reg := registry.New([]string{"appnewsdaily.com"}, nil)
	front := cache.NewFront(shared, logger)
	links := storetest.NewLinkStore()
	clicks := storetest.NewClickStore()
	repo := analyticstest.NewRepository(nil)

	return &httpapi.App{
		Config:    config.Config{CORSOrigin: "*"},
		Logger:    logger,
		Engine:    dispatch.New(shared, front, reg, logger),
		Recorder:  recorder.New(2, clicks, shared, logger),
		Analytics: repo,
		Links:     links,
		Clicks:    clicks,
		Front:     front,
		Shared:    shared,
		Registry:  reg,
		StartedAt: time.Now(),
	}
}

func TestHealthEndpointsAlwaysReportOK(t *testing.T) {
	router := httpapi.NewRouter(newTestApp(t))

	for _, path := range []string{"/health", "/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestFaviconShortCircuitsTo204(t *testing.T) {
	router := httpapi.NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDispatchRedirectsToRegistryFallbackWithNoRanking(t *testing.T) {
	router := httpapi.NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/some-random-path", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "appnewsdaily.com")
}

func TestDistinctRejectsUnknownField(t *testing.T) {
	router := httpapi.NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/api/distinct/not_a_real_field", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "validFields")
}

func TestLinksEndpointRejectsInvalidLimit(t *testing.T) {
	router := httpapi.NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/api/links?limit=-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
