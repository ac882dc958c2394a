package main

import (
	"context"
	"log"
	"time"

	"courtbook/internal/app"
	"courtbook/internal/config"
	"courtbook/internal/jobs"
	"courtbook/internal/modules/booking"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// complete_bookings marks every finished ACTIVE booking COMPLETED once and
// exits. Meant for cron hosts that do not run the API's scheduler.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zlog, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("open stores", zap.Error(err))
	}
	defer stores.Close()

	validator, err := booking.NewValidator(cfg.Policy(), clock.System{})
	if err != nil {
		zlog.Fatal("booking policy", zap.Error(err))
	}

	job := jobs.NewCompletionJob(stores.Bookings, validator.Today, clock.System{}, nil, cfg.CompletionSchedule, zlog)
	n, err := job.RunOnce(ctx)
	if err != nil {
		zlog.Fatal("completion failed", zap.Error(err))
	}
	zlog.Info("completion finished", zap.Int64("completed", n))
}
