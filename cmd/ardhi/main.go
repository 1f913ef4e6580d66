package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ardhi-erp/ardhi/internal/app"
	"github.com/ardhi-erp/ardhi/internal/clients"
	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/land"
	"github.com/ardhi-erp/ardhi/internal/notifications"
	"github.com/ardhi-erp/ardhi/internal/offers"
	"github.com/ardhi-erp/ardhi/internal/platform/cache"
	"github.com/ardhi-erp/ardhi/internal/platform/db"
	"github.com/ardhi-erp/ardhi/internal/reports"
	"github.com/ardhi-erp/ardhi/internal/sales"
	"github.com/ardhi-erp/ardhi/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, queueClient, logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService)

	landRepo := land.NewRepository(pool)
	landService := land.NewService(landRepo)
	landHandler := land.NewHandler(logger, landService)

	offersRepo := offers.NewRepository(pool)
	offersService := offers.NewService(offersRepo)
	offersHandler := offers.NewHandler(logger, offersService)

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, notificationsService, reportsService, logger)
	salesHandler := sales.NewHandler(logger, salesService)

	installmentsRepo := installments.NewRepository(pool)
	installmentsService := installments.NewService(installmentsRepo, reportsService, logger)
	installmentsHandler := installments.NewHandler(logger, installmentsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		ClientsHandler:       clientsHandler,
		LandHandler:          landHandler,
		OffersHandler:        offersHandler,
		SalesHandler:         salesHandler,
		InstallmentsHandler:  installmentsHandler,
		NotificationsHandler: notificationsHandler,
		ReportsHandler:       reportsHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
