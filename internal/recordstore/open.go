package recordstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/config"
	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a RecordStore with the administrative helpers both backends
// provide.
type Store interface {
	core.RecordStore
	AssignCode(ctx context.Context, entityID, code string) error
	MediaCount(ctx context.Context, entityID string) (int, error)
	ListParticipants(ctx context.Context, filter core.EntityFilter) ([]Participant, error)
	Ping(ctx context.Context) error
	Close() error
}

// Participant is an administrative view of a participant row.
type Participant struct {
	ID         string
	Name       string
	Code       string // Empty until a code is assigned
	ClassName  string
	MediaCount int
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		return openPostgres(ctx, cfg)
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store := NewPostgres(pool)
	if err := store.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return store, nil
}

// DatabaseName returns the database name in a connection URL, for logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
