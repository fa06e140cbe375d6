package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/grainledger/grainledger/internal/app"
	"github.com/grainledger/grainledger/internal/dailystock"
	jobmetrics "github.com/grainledger/grainledger/internal/jobs"
	"github.com/grainledger/grainledger/internal/platform/cache"
	"github.com/grainledger/grainledger/internal/platform/db"
	"github.com/grainledger/grainledger/internal/stock"
	"github.com/grainledger/grainledger/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, state cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var stockCache *stock.Cache
	if redisClient != nil {
		stockCache = stock.NewCache(redisClient, cfg.StateCacheTTL)
	}
	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, stockCache)

	dailyRepo := dailystock.NewRepository(pool)
	dailyService := dailystock.NewService(dailyRepo)

	metrics := jobmetrics.NewMetrics(nil)
	continuityJob := jobs.NewStockContinuityJob(dailyService, logger, metrics)
	reconcileJob := jobs.NewStockReconcileJob(stockService, logger, metrics)

	continuityTask, err := jobs.NewStockContinuityTask(cfg.ContinuityWindowDays)
	if err != nil {
		logger.Error("build continuity task", slog.Any("error", err))
		os.Exit(1)
	}
	reconcileTask, err := jobs.NewStockReconcileTask()
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockContinuity, Handler: continuityJob.Handle},
			{Type: jobs.TaskStockReconcile, Handler: reconcileJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 1 * * *", Task: continuityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
