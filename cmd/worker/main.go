package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/app"
	jobmetrics "github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/jobs"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/observability"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/cache"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/db"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/jobs"
)

func main() {
	if app.SkipStartup("worker") {
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.Open(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := cache.NewClient(cfg.RedisAddr)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	registry := observability.NewMetrics()
	services := app.NewServices(cfg, pool, redisClient, registry, logger)
	metrics := jobmetrics.NewMetrics(registry.Registerer())

	expiryJob := jobs.NewCarryforwardExpiryJob(services.TaxRepo, logger, metrics)
	prebuildJob := jobs.NewBirPrebuildJob(services.Extractor, logger, metrics)

	expiryTask, err := jobs.NewCarryforwardExpiryTask(0)
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCarryforwardExpiry, Handler: expiryJob.Handle},
			{Type: jobs.TaskBirPrebuild, Handler: prebuildJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.CarryforwardExpiryCron, Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := registry.Server(cfg.WorkerMetricsAddr)
	go func() {
		logger.Info("starting metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", slog.Any("error", err))
		}
	}()

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
