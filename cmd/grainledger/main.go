package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grainledger/grainledger/internal/app"
	"github.com/grainledger/grainledger/internal/approval"
	"github.com/grainledger/grainledger/internal/dailystock"
	"github.com/grainledger/grainledger/internal/masterdata"
	"github.com/grainledger/grainledger/internal/movement"
	"github.com/grainledger/grainledger/internal/observability"
	"github.com/grainledger/grainledger/internal/platform/cache"
	"github.com/grainledger/grainledger/internal/platform/db"
	"github.com/grainledger/grainledger/internal/shared"
	"github.com/grainledger/grainledger/internal/stock"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	movementRepo := movement.NewRepository(dbpool)
	movementService := movement.NewService(movementRepo, auditLogger)
	movementHandler := movement.NewHandler(logger, movementService)

	var stockCache *stock.Cache
	if redisClient != nil {
		stockCache = stock.NewCache(redisClient, cfg.StateCacheTTL)
	}
	stockRepo := stock.NewRepository(dbpool)
	stockService := stock.NewService(stockRepo, stockCache)
	stockHandler := stock.NewHandler(logger, stockService)

	approvalRepo := approval.NewRepository(dbpool)
	approvalService := approval.NewService(approvalRepo, approvalRecorder, auditLogger, idempotencyStore, stockService, approval.ServiceConfig{
		MaxRetries: cfg.ApprovalMaxRetries,
		RetryDelay: cfg.ApprovalRetryDelay,
	})
	approvalHandler := approval.NewHandler(logger, approvalService)

	dailyRepo := dailystock.NewRepository(dbpool)
	dailyService := dailystock.NewService(dailyRepo)
	dailyHandler := dailystock.NewHandler(logger, dailyService)

	masterdataRepo := masterdata.NewRepository(dbpool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              dbpool,
		MovementHandler:   movementHandler,
		ApprovalHandler:   approvalHandler,
		StockHandler:      stockHandler,
		DailyStockHandler: dailyHandler,
		MasterDataHandler: masterdataHandler,
		Metrics:           metrics,
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
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
