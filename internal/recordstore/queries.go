// Package recordstore persists participants and their media metadata.
//
// Two backends share the same squirrel-built queries: Postgres through pgx
// for deployments, and SQLite through modernc.org/sqlite for local runs and
// the CLI.
package recordstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const (
	tableParticipants = "participants"
	tableMedia        = "participant_media"

	// fieldClass is stored in its own column; every other optional field
	// goes into the attributes JSON.
	fieldClass = "class"
	fieldCode  = "code"
)

// queries builds statements for one placeholder dialect.
type queries struct {
	sb  squirrel.StatementBuilderType
	id  func(string) any // Driver representation of a UUID
	now func() any       // Driver representation of the current time
}

// sqliteTimeFormat sorts lexically in time order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func postgresQueries() queries {
	return queries{
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		id:  func(s string) any { return toPgUUID(s) },
		now: func() any { return time.Now().UTC() },
	}
}

func sqliteQueries() queries {
	return queries{
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		id:  func(s string) any { return s },
		now: func() any { return time.Now().UTC().Format(sqliteTimeFormat) },
	}
}

// participantRow is an EntityRecord split into table columns.
type participantRow struct {
	code       *string
	className  *string
	attributes string
}

func splitFields(fields map[string]string) (participantRow, error) {
	var row participantRow
	extra := make(map[string]string, len(fields))

	for k, v := range fields {
		switch k {
		case fieldClass:
			row.className = &v
		case fieldCode:
			if v != "" {
				row.code = &v
			}
		default:
			extra[k] = v
		}
	}

	attrs, err := json.Marshal(extra)
	if err != nil {
		return participantRow{}, fmt.Errorf("encode attributes: %w", err)
	}
	row.attributes = string(attrs)
	return row, nil
}

func (q queries) insertParticipant(rec core.EntityRecord) (string, []any, error) {
	row, err := splitFields(rec.Fields)
	if err != nil {
		return "", nil, err
	}

	return q.sb.Insert(tableParticipants).
		Columns("id", "tenant_id", "school_id", "event_id", "code", "name", "class_name", "attributes", "created_at").
		Values(q.id(rec.ID), rec.TenantID, rec.SchoolID, rec.EventID, row.code, rec.Name, row.className, row.attributes, q.now()).
		ToSql()
}

func (q queries) insertMedia(rec core.MediaRecord) (string, []any, error) {
	return q.sb.Insert(tableMedia).
		Columns("id", "participant_id", "storage_key", "url", "original_filename", "size_bytes", "content_type", "created_at").
		Values(q.id(uuid.NewString()), q.id(rec.EntityID), rec.StorageKey, rec.URL, rec.OriginalFilename, rec.SizeBytes, rec.ContentType, q.now()).
		ToSql()
}

// listEntities selects coded participants in insertion order, so the index
// built from the result resolves duplicate codes to the newest participant.
func (q queries) listEntities(filter core.EntityFilter) (string, []any, error) {
	sel := q.sb.Select("id", "code", "name").
		From(tableParticipants).
		Where(squirrel.NotEq{"code": nil}).
		Where(squirrel.NotEq{"code": ""}).
		OrderBy("created_at", "id")

	if eq := scopeEq("", filter); len(eq) > 0 {
		sel = sel.Where(eq)
	}

	return sel.ToSql()
}

// listParticipants selects every participant in scope, coded or not, with
// its media count.
func (q queries) listParticipants(filter core.EntityFilter) (string, []any, error) {
	sel := q.sb.Select("p.id", "p.name", "COALESCE(p.code, '')", "COALESCE(p.class_name, '')", "COUNT(m.id)").
		From(tableParticipants + " p").
		LeftJoin(tableMedia + " m ON m.participant_id = p.id").
		GroupBy("p.id", "p.name", "p.code", "p.class_name", "p.created_at").
		OrderBy("p.created_at", "p.id")

	if eq := scopeEq("p.", filter); len(eq) > 0 {
		sel = sel.Where(eq)
	}

	return sel.ToSql()
}

// scopeEq matches the non-empty filter fields, with columns qualified by
// prefix.
func scopeEq(prefix string, filter core.EntityFilter) squirrel.Eq {
	eq := squirrel.Eq{}
	if filter.TenantID != "" {
		eq[prefix+"tenant_id"] = filter.TenantID
	}
	if filter.SchoolID != "" {
		eq[prefix+"school_id"] = filter.SchoolID
	}
	if filter.EventID != "" {
		eq[prefix+"event_id"] = filter.EventID
	}
	return eq
}

func (q queries) countMedia(entityID string) (string, []any, error) {
	return q.sb.Select("COUNT(*)").
		From(tableMedia).
		Where(squirrel.Eq{"participant_id": q.id(entityID)}).
		ToSql()
}

func (q queries) setCode(entityID, code string) (string, []any, error) {
	return q.sb.Update(tableParticipants).
		Set("code", code).
		Where(squirrel.Eq{"id": q.id(entityID)}).
		ToSql()
}
