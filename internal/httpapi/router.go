// Package httpapi wires the dispatch, reporting, and health surfaces
// (spec.md §4.2, §4.5, §4.6) onto a gorilla/mux router, grounded on
// app/admin/controller/controller.go's NewRouter/WithCORS shape.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/analytics"
	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/config"
	"github.com/redirectdispatch/dispatcher/internal/dispatch"
	"github.com/redirectdispatch/dispatcher/internal/recorder"
	"github.com/redirectdispatch/dispatcher/internal/registry"
	"github.com/redirectdispatch/dispatcher/internal/store"
)

// App bundles everything the HTTP handlers need. Built once in
// internal/app and handed to NewRouter.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Engine    *dispatch.Engine
	Recorder  *recorder.Recorder
	Analytics analytics.Repository
	Links     store.LinkStore
	Clicks    store.ClickStore
	Postgres  *store.Client
	Front     *cache.Front
	Shared    cache.SharedCache
	Registry  *registry.Registry
	StartedAt time.Time
}

// NewRouter assembles the full route table (spec.md §4's route table).
func NewRouter(app *App) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", app.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ping", app.handlePing).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", app.handleHealthReady).Methods(http.MethodGet)
	r.HandleFunc("/health/detailed", app.handleHealthDetailed).Methods(http.MethodGet)

	r.HandleFunc("/api/process", app.handleProcess).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", app.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/distinct/{field}", app.handleDistinct).Methods(http.MethodGet)
	r.HandleFunc("/api/links", app.handleLinks).Methods(http.MethodGet)

	r.PathPrefix("/").HandlerFunc(app.handleDispatchOrFavicon)

	return withCORS(app.Config.CORSOrigin)(r)
}
