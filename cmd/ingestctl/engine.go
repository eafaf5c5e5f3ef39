package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/batchingest/internal/blobstore"
	"github.com/JonMunkholm/batchingest/internal/config"
	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/logging"
	"github.com/JonMunkholm/batchingest/internal/recordstore"
	"github.com/gofrs/flock"
)

// engine bundles the stores and service opened for one command.
type engine struct {
	records recordstore.Store
	blobs   *blobstore.Store
	service *core.Service
	lock    *flock.Flock
}

// openEngine opens the configured stores. A SQLite database is locked for
// the life of the command so two ingestctl runs never write it at once.
func (c *commandContext) openEngine(ctx context.Context, logOut io.Writer) (*engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	e := &engine{}
	if cfg.Database.Driver == "sqlite" && cfg.Database.SQLitePath != recordstore.MemoryDSN {
		e.lock = flock.New(cfg.Database.SQLitePath + ".lock")
		ok, err := e.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("database %s is in use by another ingestctl", cfg.Database.SQLitePath)
		}
	}

	e.records, err = recordstore.Open(ctx, cfg.Database)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.blobs, err = blobstore.Open(ctx, blobstore.Config{
		BucketURL:     cfg.Storage.BucketURL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Prefix:        cfg.Storage.Prefix,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	e.service = core.NewService(e.blobs, e.records, cfg.Engine(),
		core.WithLogger(cliLogger(cfg, logOut)),
	)
	return e, nil
}

func (e *engine) Close() {
	if e.blobs != nil {
		_ = e.blobs.Close()
	}
	if e.records != nil {
		_ = e.records.Close()
	}
	if e.lock != nil {
		_ = e.lock.Unlock()
	}
}

// cliLogger logs to stderr at warn level unless debug was requested, so
// reports on stdout stay readable.
func cliLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.Logging.Level
	if level != "debug" {
		level = "warn"
	}
	return logging.New(w, level, cfg.Logging.Format)
}
