package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ardhi-erp/ardhi/internal/app"
	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/notifications"
	"github.com/ardhi-erp/ardhi/internal/platform/db"
	"github.com/ardhi-erp/ardhi/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, nil, logger)

	installmentsRepo := installments.NewRepository(pool)
	installmentsService := installments.NewService(installmentsRepo, nil, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeNotificationDispatch, Handler: jobs.NewNotificationDispatchHandler(notificationsService, logger)},
			{Type: jobs.TaskTypeOverdueScan, Handler: jobs.NewOverdueScanHandler(installmentsService, notificationsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueScanCron, Task: jobs.NewOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
