package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	if a.Config.IsPrimary() {
		a.StartCron()
	} else {
		a.Logger.Info("not primary, skipping refresh scheduler", zap.Int("workerId", a.Config.WorkerID))
	}

	a.Start(ctx)
}
