package recordstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/JonMunkholm/batchingest/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLite implements core.RecordStore on a local SQLite file.
type SQLite struct {
	db   *sql.DB
	path string
	q    queries
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// One connection: pragmas are per connection and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLite{
		db:   db,
		path: path,
		q:    sqliteQueries(),
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *SQLite) Path() string {
	return s.path
}

// Ping checks the database is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) InsertMediaRecord(ctx context.Context, rec core.MediaRecord) error {
	query, args, err := s.q.insertMedia(rec)
	if err != nil {
		return fmt.Errorf("build insert media query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}
	return nil
}

func (s *SQLite) InsertEntityRecord(ctx context.Context, rec core.EntityRecord) error {
	query, args, err := s.q.insertParticipant(rec)
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *SQLite) ListEntities(ctx context.Context, filter core.EntityFilter) ([]core.Entity, error) {
	query, args, err := s.q.listEntities(filter)
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var entities []core.Entity
	for rows.Next() {
		var e core.Entity
		if err := rows.Scan(&e.ID, &e.Code, &e.DisplayName); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return entities, nil
}

// AssignCode sets the media code of a participant.
func (s *SQLite) AssignCode(ctx context.Context, entityID, code string) error {
	query, args, err := s.q.setCode(entityID, code)
	if err != nil {
		return fmt.Errorf("build assign code query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("assign code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assign code: participant %s not found", entityID)
	}
	return nil
}

// MediaCount returns how many media rows point at entityID.
func (s *SQLite) MediaCount(ctx context.Context, entityID string) (int, error) {
	query, args, err := s.q.countMedia(entityID)
	if err != nil {
		return 0, fmt.Errorf("build count media query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// ListParticipants returns every participant in scope with its media count.
func (s *SQLite) ListParticipants(ctx context.Context, filter core.EntityFilter) ([]Participant, error) {
	query, args, err := s.q.listParticipants(filter)
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var pt Participant
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Code, &pt.ClassName, &pt.MediaCount); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}
