// Command server starts the Authentyc landing page API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "github.com/fairyhunter13/authentyc-landing/internal/adapter/httpserver"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/authentyc-landing/internal/app"
	"github.com/fairyhunter13/authentyc-landing/internal/config"
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

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("db migrate failed", slog.Any("error", err))
		os.Exit(1)
	}

	rdb, err := app.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	if n, err := app.SeedPromptsFromFile(ctx, postgres.NewPromptRepo(pool), cfg.PromptSeedFile); err != nil {
		slog.Warn("prompt seeding failed", slog.Any("error", err))
	} else if n > 0 {
		slog.Info("prompts seeded", slog.Int("count", n))
	}

	svc, err := app.BuildServices(ctx, cfg, pool, rdb)
	if err != nil {
		slog.Error("service wiring failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			slog.Error("failed to close services", slog.Any("error", err))
		}
	}()

	// Without a queue there is no worker process, so retention runs here.
	if !cfg.QueueEnabled() && cfg.RetentionDays > 0 {
		go postgres.NewCleanupService(pool, cfg.RetentionDays).RunPeriodic(ctx, cfg.CleanupInterval)
	}

	var queuePinger app.Pinger
	if p, ok := svc.Queue.(app.Pinger); ok {
		queuePinger = p
	}
	var redisPinger app.Pinger
	if rdb != nil {
		redisPinger = app.RedisPinger(rdb)
	}
	dbCheck, redisCheck, queueCheck := app.BuildReadinessChecks(pool, redisPinger, queuePinger)

	srv := httpserver.NewServer(cfg, svc.Analyze, svc.Waitlist, svc.Prompts, svc.Stats, dbCheck, redisCheck, queueCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting",
			slog.Int("port", cfg.Port),
			slog.String("env", cfg.AppEnv),
			slog.Bool("ai_enabled", cfg.GeminiAPIKey != ""),
			slog.Bool("email_enabled", cfg.EmailEnabled()),
			slog.Bool("queue_enabled", cfg.QueueEnabled()),
			slog.Bool("admin_enabled", cfg.AdminEnabled()))
		errCh <- srvHTTP.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.Any("error", err))
	}
}
