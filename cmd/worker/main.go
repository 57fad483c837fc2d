// Package main provides the worker entry point.
// The worker delivers welcome emails from the Redpanda queue and prunes old rows.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/authentyc-landing/internal/app"
	"github.com/fairyhunter13/authentyc-landing/internal/config"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, ReadHeaderTimeout: 5 * time.Second}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv.Handler = mux
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RetentionDays > 0 {
		go postgres.NewCleanupService(pool, cfg.RetentionDays).RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.RetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	if cfg.QueueEnabled() && cfg.EmailEnabled() {
		delivery := usecase.NewEmailDeliveryService(
			postgres.NewEmailJobRepo(pool),
			app.NewEmailSender(cfg),
			cfg.EmailRetryPolicy(),
		)
		consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.EmailGroupID, cfg.EmailTopic, delivery)
		if err != nil {
			slog.Error("redpanda consumer init failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				slog.Error("failed to close consumer", slog.Any("error", err))
			}
		}()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("consumer error", slog.Any("error", err))
			}
		}()
	} else {
		slog.Info("email consumer disabled",
			slog.Bool("queue_enabled", cfg.QueueEnabled()),
			slog.Bool("email_enabled", cfg.EmailEnabled()))
	}

	slog.Info("worker started, waiting for shutdown signal")
	<-ctx.Done()
	slog.Info("signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	slog.Info("worker stopped")
}
