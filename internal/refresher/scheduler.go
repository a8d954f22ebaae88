package refresher

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler owns the cron job that drives the refresher on its
// schedule. Grounded on app/controller/app.go's SetupScheduler /
// StartCron / StopCron: only the primary replica starts the job,
// a bounded per-run context, panics recovered by cron.Recover.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	logger *zap.Logger
}

// NewScheduler builds a Scheduler that calls r.RunOnce on every tick
// of spec (a six-field, seconds-first cron expression, e.g.
// "0 30 * * * *" for minute 30 of every hour — spec.md §6).
func NewScheduler(ctx context.Context, r *Refresher, spec string, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if _, err := r.RunOnce(runCtx); err != nil {
			logger.Warn("scheduled refresh failed, waiting for next schedule", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, spec: spec, logger: logger}, nil
}

// Start starts the cron scheduler. Only the primary replica should
// call this (spec.md §4.1's "Trigger" / §5's "Primary election").
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh scheduler started", zap.String("cronSpec", s.spec))
}

// Stop drains and stops the cron scheduler.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
