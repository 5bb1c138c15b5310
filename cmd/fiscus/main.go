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

	"github.com/fiscus-erp/fiscus/internal/app"
	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/observability"
	"github.com/fiscus-erp/fiscus/internal/platform/cache"
	"github.com/fiscus-erp/fiscus/internal/platform/db"
	"github.com/fiscus-erp/fiscus/internal/settings"
	"github.com/fiscus-erp/fiscus/internal/vat"
	vathttp "github.com/fiscus-erp/fiscus/internal/vat/http"
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
		logger.Warn("redis unavailable, settings cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	ledgerRepo := ledger.NewRepository(pool)
	aggregator := ledger.NewAggregator(ledgerRepo, cfg.LedgerFetchTimeout)

	settingsRepo := settings.NewRepository(pool)
	settingsSvc := settings.NewService(settingsRepo, redisClient, cfg.SettingsCacheTTL, logger)

	vatRepo := vat.NewRepository(pool, ledgerRepo)
	vatSvc := vat.NewService(aggregator, settingsSvc, vatRepo, metrics, logger)
	vatHandler := vathttp.NewHandler(logger, vatSvc)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		VATHandler: vatHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
