package recordstore

import (
	"context"
	"testing"

	"github.com/JonMunkholm/batchingest/internal/config"
	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFields(t *testing.T) {
	row, err := splitFields(map[string]string{
		"class": "1A",
		"shift": "morning",
		"code":  "QR1234567",
	})
	require.NoError(t, err)

	require.NotNil(t, row.className)
	assert.Equal(t, "1A", *row.className)
	require.NotNil(t, row.code)
	assert.Equal(t, "QR1234567", *row.code)
	assert.JSONEq(t, `{"shift":"morning"}`, row.attributes)
}

func TestSplitFields_AbsentAndEmpty(t *testing.T) {
	row, err := splitFields(nil)
	require.NoError(t, err)
	assert.Nil(t, row.className)
	assert.Nil(t, row.code)
	assert.Equal(t, "{}", row.attributes)

	// A present-but-empty class is stored as "", not NULL.
	row, err = splitFields(map[string]string{"class": "", "code": ""})
	require.NoError(t, err)
	require.NotNil(t, row.className)
	assert.Equal(t, "", *row.className)
	assert.Nil(t, row.code)
}

func TestListEntitiesQuery(t *testing.T) {
	q := sqliteQueries()

	query, args, err := q.listEntities(core.EntityFilter{TenantID: "t1", EventID: "ev1"})
	require.NoError(t, err)

	assert.Contains(t, query, "FROM participants")
	assert.Contains(t, query, "code IS NOT NULL")
	assert.Contains(t, query, "tenant_id = ?")
	assert.Contains(t, query, "event_id = ?")
	assert.NotContains(t, query, "school_id")
	assert.Contains(t, query, "ORDER BY created_at, id")
	assert.ElementsMatch(t, []any{"", "t1", "ev1"}, args)
}

func TestPostgresPlaceholders(t *testing.T) {
	q := postgresQueries()

	query, args, err := q.insertParticipant(core.EntityRecord{
		ID:       "0b9f0a8e-4a3c-4c1a-9d55-1f7f3f0e2b11",
		TenantID: "t1",
		SchoolID: "s1",
		EventID:  "ev1",
		Name:     "Ana",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "$9")
	assert.NotContains(t, query, "?")
	require.Len(t, args, 9)
	assert.Equal(t, toPgUUID("0b9f0a8e-4a3c-4c1a-9d55-1f7f3f0e2b11"), args[0])
	assert.Equal(t, "Ana", args[5])
}

func TestPgUUIDRoundTrip(t *testing.T) {
	id := "0b9f0a8e-4a3c-4c1a-9d55-1f7f3f0e2b11"
	assert.Equal(t, id, pgUUIDToString(toPgUUID(id)))
	assert.False(t, toPgUUID("").Valid)
	assert.False(t, toPgUUID("not-a-uuid").Valid)
	assert.Equal(t, "", pgUUIDToString(toPgUUID("")))
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "ingest", DatabaseName("postgres://user:pw@localhost:5432/ingest?sslmode=disable"))
	assert.Equal(t, "", DatabaseName("::bad"))
}

func TestOpen_SQLiteDefault(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", SQLitePath: MemoryDSN})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &SQLite{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestListParticipantsQuery(t *testing.T) {
	query, args, err := postgresQueries().listParticipants(core.EntityFilter{SchoolID: "s1"})
	require.NoError(t, err)

	assert.Contains(t, query, "LEFT JOIN participant_media m ON m.participant_id = p.id")
	assert.Contains(t, query, "p.school_id = $1")
	assert.Contains(t, query, "GROUP BY")
	assert.Equal(t, []any{"s1"}, args)
}
