package core

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testScope = ImportScope{TenantID: "t1", SchoolID: "s1", EventID: "ev1"}

func csvRows(names ...string) []CsvRow {
	rows := make([]CsvRow, len(names))
	for i, n := range names {
		rows[i] = CsvRow{Line: i + 2, Name: n, Fields: map[string]string{"class": "1A"}}
	}
	return rows
}

func TestBatchImporter_RowFailureIsIsolated(t *testing.T) {
	records := &memRecords{
		failEntity: func(rec EntityRecord) error {
			if rec.Name == "Beto" {
				return fmt.Errorf("insert participant: %w", errFakeDown)
			}
			return nil
		},
	}

	rows := []CsvRow{
		{Line: 2, Name: "Ana"},
		{Line: 3, Name: "Beto"},
		{Line: 4, Name: "Carla"},
	}
	out, err := NewBatchImporter(records).Run(context.Background(), rows, testScope)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.SuccessCount)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, 3, out.Errors[0].Row)
	assert.Equal(t, "Beto", out.Errors[0].Name)
	assert.Contains(t, out.Errors[0].Error, errFakeDown.Error())
	assert.ElementsMatch(t, []string{"Ana", "Carla"}, records.insertedNames())
}

func TestBatchImporter_InvalidScope(t *testing.T) {
	records := &memRecords{}

	_, err := NewBatchImporter(records).Run(context.Background(), csvRows("Ana"), ImportScope{TenantID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid import scope")
	assert.Empty(t, records.insertedNames())
}

func TestBatchImporter_RecordsCarryScope(t *testing.T) {
	records := &memRecords{}

	_, err := NewBatchImporter(records).Run(context.Background(), csvRows("Ana", "Beto"), testScope)
	require.NoError(t, err)

	require.Len(t, records.inserted, 2)
	ids := map[string]bool{}
	for _, rec := range records.inserted {
		assert.Equal(t, "t1", rec.TenantID)
		assert.Equal(t, "s1", rec.SchoolID)
		assert.Equal(t, "ev1", rec.EventID)
		assert.Equal(t, "1A", rec.Fields["class"])
		assert.NotEmpty(t, rec.ID)
		ids[rec.ID] = true
	}
	assert.Len(t, ids, 2)
}

func TestBatchImporter_BatchesRunInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	records := &memRecords{
		failEntity: func(rec EntityRecord) error {
			var line int
			fmt.Sscanf(rec.Name, "row-%d", &line)
			mu.Lock()
			order = append(order, line)
			mu.Unlock()
			return nil
		},
	}

	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("row-%d", i)
	}

	var progress progressLog
	out, err := NewBatchImporter(records, WithImportProgress(progress.record)).
		Run(context.Background(), csvRows(names...), testScope)
	require.NoError(t, err)

	assert.Equal(t, 25, out.SuccessCount)
	// Three batches: progress moves once per batch, not per row.
	assert.Equal(t, []int{33, 67, 100}, progress.all())

	// Every row of a batch is inserted before any row of the next one.
	require.Len(t, order, 25)
	for pos, row := range order {
		assert.Equal(t, pos/DefaultBatchSize, row/DefaultBatchSize, "row %d inserted at position %d", row, pos)
	}
}

func TestBatchImporter_ErrorsSortedByRow(t *testing.T) {
	records := &memRecords{
		failEntity: func(EntityRecord) error { return errFakeDown },
	}

	out, err := NewBatchImporter(records, WithBatchSize(4)).
		Run(context.Background(), csvRows("a", "b", "c", "d", "e", "f"), testScope)
	require.NoError(t, err)

	require.Len(t, out.Errors, 6)
	for i, e := range out.Errors {
		assert.Equal(t, i+2, e.Row)
	}
	assert.Equal(t, 0, out.SuccessCount)
}

func TestBatchImporter_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := &memRecords{}
	importer := NewBatchImporter(records,
		WithBatchSize(2),
		WithImportProgress(func(int) { cancel() }),
	)

	out, err := importer.Run(ctx, csvRows("a", "b", "c", "d", "e"), testScope)
	require.NoError(t, err)

	assert.True(t, out.Cancelled)
	assert.Equal(t, 2, out.SuccessCount, "only the first batch runs")
	assert.Equal(t, 5, out.Total)
	assert.LessOrEqual(t, out.SuccessCount+len(out.Errors), out.Total)
}

func TestBatchImporter_Empty(t *testing.T) {
	out, err := NewBatchImporter(&memRecords{}).Run(context.Background(), nil, testScope)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.NotNil(t, out.Errors)
	assert.False(t, out.Cancelled)
}

func TestBatchImporter_ProgressCountsBatches(t *testing.T) {
	var progress progressLog
	_, err := NewBatchImporter(&memRecords{},
		WithBatchSize(4),
		WithImportProgress(progress.record),
	).Run(context.Background(), csvRows("a", "b", "c", "d", "e"), testScope)
	require.NoError(t, err)

	// A short final batch still counts as a whole batch.
	assert.Equal(t, []int{50, 100}, progress.all())
}
