package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/batchingest/internal/blobstore"
	"github.com/JonMunkholm/batchingest/internal/config"
	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/logging"
	"github.com/JonMunkholm/batchingest/internal/metrics"
	"github.com/JonMunkholm/batchingest/internal/recordstore"
	"github.com/JonMunkholm/batchingest/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"bucket", cfg.Storage.BucketURL,
		"max_concurrent_runs", cfg.Upload.MaxConcurrent,
		"upload_workers", cfg.Upload.Workers,
		"import_batch_size", cfg.Import.BatchSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	records, err := recordstore.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer records.Close()

	if cfg.Database.Driver == "postgres" {
		slog.Info("connected to database", "name", recordstore.DatabaseName(cfg.Database.URL))
	} else {
		slog.Info("opened sqlite database", "path", cfg.Database.SQLitePath)
	}

	blobs, err := blobstore.Open(ctx, blobstore.Config{
		BucketURL:     cfg.Storage.BucketURL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Prefix:        cfg.Storage.Prefix,
	})
	if err != nil {
		slog.Error("failed to open blob storage", "error", err)
		os.Exit(1)
	}
	defer blobs.Close()

	m := metrics.New(cfg.Metrics.Namespace)

	service := core.NewService(blobs, records, cfg.Engine(),
		core.WithObserver(m),
		core.WithLogger(logging.Component("engine")),
	)

	server := web.NewServer(service, cfg,
		web.WithMetricsHandler(m.Handler()),
		web.WithHealthCheck(records.Ping),
	)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		} else {
			slog.Info("all runs completed")
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
