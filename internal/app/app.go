// Package app wires every component into a runnable process, grounded
// on app/query/app.go's Initialize and app/query/types/app.go's
// Start/shutdown sequencing.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/analytics"
	"github.com/redirectdispatch/dispatcher/internal/cache"
	"github.com/redirectdispatch/dispatcher/internal/config"
	"github.com/redirectdispatch/dispatcher/internal/dispatch"
	"github.com/redirectdispatch/dispatcher/internal/httpapi"
	"github.com/redirectdispatch/dispatcher/internal/logging"
	"github.com/redirectdispatch/dispatcher/internal/recorder"
	"github.com/redirectdispatch/dispatcher/internal/refresher"
	"github.com/redirectdispatch/dispatcher/internal/registry"
	"github.com/redirectdispatch/dispatcher/internal/store"
)

// App is the fully wired process: every store, the dispatch engine,
// the background refresher, and the HTTP server.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Postgres  *store.Client
	Redis     *cache.RedisCache
	Analytics *analytics.ClickHouseRepository
	Links     store.LinkStore
	Clicks    store.ClickStore
	Registry  *registry.Registry
	Front     *cache.Front
	Engine    *dispatch.Engine
	Recorder  *recorder.Recorder
	Refresher *refresher.Refresher
	Scheduler *refresher.Scheduler
	Server    *http.Server
}

// Initialize resolves configuration, connects every store with
// startup retry, and wires the dispatch/refresher/HTTP layers on top.
func Initialize(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}

	if missing := cfg.Degraded(); len(missing) > 0 {
		logger.Warn("starting in degraded mode, missing required configuration", zap.Strings("missing", missing))
	}

	reg := registry.Default()

	a := &App{Config: cfg, Logger: logger, Registry: reg}

	if cfg.PostgresURL != "" {
		pg, err := store.NewClient(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.Postgres = pg
		a.Links = store.NewPostgresLinkStore(pg)
		a.Clicks = store.NewPostgresClickStore(pg)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rc
		a.Front = cache.NewFront(rc, logger)
	}

	if cfg.ClickHouseURL != "" {
		chRepo, err := analytics.NewClickHouseRepository(ctx, cfg.ClickHouseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		a.Analytics = chRepo
	}

	if a.Redis != nil {
		a.Engine = dispatch.New(a.Redis, a.Front, reg, logger)
		a.Recorder = recorder.New(cfg.WorkerPoolSize, a.Clicks, a.Redis, logger)
	}

	if a.Analytics != nil && a.Redis != nil && a.Links != nil {
		a.Refresher = refresher.New(a.Analytics, a.Redis, a.Links, reg, logger)
		sched, err := refresher.NewScheduler(ctx, a.Refresher, cfg.RefreshCron, logger)
		if err != nil {
			return nil, fmt.Errorf("setup scheduler: %w", err)
		}
		a.Scheduler = sched
	}

	a.Server = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: httpapi.NewRouter(&httpapi.App{
			Config:    cfg,
			Logger:    logger,
			Engine:    a.Engine,
			Recorder:  a.Recorder,
			Analytics: a.Analytics,
			Links:     a.Links,
			Clicks:    a.Clicks,
			Postgres:  a.Postgres,
			Front:     a.Front,
			Shared:    a.Redis,
			Registry:  reg,
			StartedAt: time.Now(),
		}),
	}

	return a, nil
}

// StartCron starts the refresh scheduler. Called by the caller only
// when config.IsPrimary() holds, so exactly one replica runs it.
func (a *App) StartCron() {
	if a.Scheduler == nil {
		return
	}
	if _, err := a.Refresher.RunOnce(context.Background()); err != nil {
		a.Logger.Warn("initial refresh failed, will retry on next cron tick", zap.Error(err))
	}
	a.Scheduler.Start()
}

// Start runs the HTTP server until ctx is cancelled, then drains the
// recorder pool and closes every store before returning.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("http server error", zap.Error(err))
		}
	}()
	a.Logger.Info("server started", zap.Int("port", a.Config.Port))

	<-ctx.Done()
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Recorder != nil {
		a.Recorder.Stop(5 * time.Second)
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Analytics != nil {
		a.Analytics.Close()
	}

	_ = a.Logger.Sync()
}
