package recordstore

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres implements core.RecordStore on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    queries
}

// NewPostgres wraps pool. Close closes it.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		q:    postgresQueries(),
	}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) InsertMediaRecord(ctx context.Context, rec core.MediaRecord) error {
	query, args, err := p.q.insertMedia(rec)
	if err != nil {
		return fmt.Errorf("build insert media query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}
	return nil
}

func (p *Postgres) InsertEntityRecord(ctx context.Context, rec core.EntityRecord) error {
	query, args, err := p.q.insertParticipant(rec)
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (p *Postgres) ListEntities(ctx context.Context, filter core.EntityFilter) ([]core.Entity, error) {
	query, args, err := p.q.listEntities(filter)
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var entities []core.Entity
	for rows.Next() {
		var (
			id   pgtype.UUID
			code string
			name string
		)
		if err := rows.Scan(&id, &code, &name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		entities = append(entities, core.Entity{ID: pgUUIDToString(id), Code: code, DisplayName: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return entities, nil
}

// AssignCode sets the media code of a participant.
func (p *Postgres) AssignCode(ctx context.Context, entityID, code string) error {
	query, args, err := p.q.setCode(entityID, code)
	if err != nil {
		return fmt.Errorf("build assign code query: %w", err)
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("assign code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assign code: participant %s not found", entityID)
	}
	return nil
}

// MediaCount returns how many media rows point at entityID.
func (p *Postgres) MediaCount(ctx context.Context, entityID string) (int, error) {
	query, args, err := p.q.countMedia(entityID)
	if err != nil {
		return 0, fmt.Errorf("build count media query: %w", err)
	}
	var n int
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// ListParticipants returns every participant in scope with its media count.
func (p *Postgres) ListParticipants(ctx context.Context, filter core.EntityFilter) ([]Participant, error) {
	query, args, err := p.q.listParticipants(filter)
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var (
			id pgtype.UUID
			pt Participant
		)
		if err := rows.Scan(&id, &pt.Name, &pt.Code, &pt.ClassName, &pt.MediaCount); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		pt.ID = pgUUIDToString(id)
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}

// toPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
