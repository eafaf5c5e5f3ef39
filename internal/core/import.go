package core

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of rows inserted concurrently per batch.
const DefaultBatchSize = 10

// BatchImporter inserts parsed CSV rows as entities in fixed-size batches.
type BatchImporter struct {
	records   RecordStore
	batchSize int
	progress  ProgressFunc
	logger    *slog.Logger
}

// ImporterOption configures a BatchImporter.
type ImporterOption func(*BatchImporter)

// WithBatchSize sets the batch size. Values below 1 are ignored.
func WithBatchSize(n int) ImporterOption {
	return func(b *BatchImporter) {
		if n >= 1 {
			b.batchSize = n
		}
	}
}

// WithImportProgress registers a callback invoked after every batch.
func WithImportProgress(fn ProgressFunc) ImporterOption {
	return func(b *BatchImporter) { b.progress = fn }
}

// WithImportLogger sets the logger used for row failures.
func WithImportLogger(l *slog.Logger) ImporterOption {
	return func(b *BatchImporter) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBatchImporter creates an importer writing to records.
func NewBatchImporter(records RecordStore, opts ...ImporterOption) *BatchImporter {
	b := &BatchImporter{
		records:   records,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run inserts rows under scope.
//
// Batches run strictly in order; rows inside a batch are inserted
// concurrently and all of them finish before the next batch starts. A row
// failure is recorded against its source line and never affects its
// siblings. The only returned error is an invalid scope.
func (b *BatchImporter) Run(ctx context.Context, rows []CsvRow, scope ImportScope) (*ImportOutcome, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	batches := chunkRows(rows, b.batchSize)
	tracker := newProgressTracker(len(batches), b.progress)
	tally := &importTally{}
	writeCtx := context.WithoutCancel(ctx)

	cancelled := false
	for _, batch := range batches {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		var g errgroup.Group
		for _, row := range batch {
			g.Go(func() error {
				rec := newEntityRecord(row, scope)
				if err := b.records.InsertEntityRecord(writeCtx, rec); err != nil {
					b.logger.Warn("row insert failed", "row", row.Line, "name", row.Name, "error", err)
					tally.failed(row, err)
					return nil
				}
				tally.succeeded()
				return nil
			})
		}
		_ = g.Wait()

		tracker.step()
	}

	return tally.outcome(len(rows), cancelled), nil
}

// newEntityRecord merges a row with its scope under a fresh ID.
func newEntityRecord(row CsvRow, scope ImportScope) EntityRecord {
	fields := make(map[string]string, len(row.Fields))
	for k, v := range row.Fields {
		fields[k] = v
	}
	return EntityRecord{
		ID:       uuid.NewString(),
		TenantID: scope.TenantID,
		SchoolID: scope.SchoolID,
		EventID:  scope.EventID,
		Name:     row.Name,
		Fields:   fields,
	}
}

func chunkRows(rows []CsvRow, size int) [][]CsvRow {
	if size < 1 {
		size = DefaultBatchSize
	}
	batches := make([][]CsvRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}
