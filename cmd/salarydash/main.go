package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salarydash/internal/cache"
	"salarydash/internal/cli"
	apphttp "salarydash/internal/http"
	applog "salarydash/internal/log"
	"salarydash/internal/metrics"
	"salarydash/internal/services"
)

const cacheCleanupInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting salarydash", "port", cfg.Port, "backend", cfg.DataBackend)
	metrics.Init()

	res := cli.OpenBackend(context.Background(), logger, cfg)
	if res.DB != nil {
		metrics.RegisterDBStats(res.DB)
	}

	// A nil *amqp.Client must not reach the services as a non-nil interface.
	var events services.EventPublisher
	if res.Events != nil {
		events = res.Events
	} else {
		logger.Info("Ledger sync disabled, records are not published")
	}

	categories := services.NewCategoryService(res.Store, cfg.CategoryCacheTTL)
	caches := cache.NewManager()
	if c := categories.Cache(); c != nil {
		caches.Register(c)
		caches.StartCleanup(cacheCleanupInterval)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.RequestTimeout,
	}, apphttp.Deps{
		Store:      res.Store,
		Users:      services.NewUserService(res.Store),
		Categories: categories,
		Earnings:   services.NewEarningService(res.Store, events),
		Expenses:   services.NewExpenseService(res.Store, categories, events),
		Dashboard:  services.NewDashboardService(res.Store, cfg.RequestTimeout),
		Logger:     logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
		caches.Stop()
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
