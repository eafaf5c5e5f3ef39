package core

import (
	"math"
	"sort"
	"sync"
)

// outcome.go holds the tallying shared by the media uploader and the batch
// importer: per-unit results are recorded as they complete and folded into
// an immutable outcome once the run ends.

type fileStatus int

const (
	fileSucceeded fileStatus = iota
	fileOrphaned
	fileFailed
)

// fileResult is the per-file result before aggregation.
type fileResult struct {
	status fileStatus
	name   string
	reason string
}

// buildUploadOutcome folds per-file results in input order. A nil entry is a
// file that was never started because the run was cancelled.
func buildUploadOutcome(results []*fileResult) *UploadOutcome {
	out := &UploadOutcome{
		SuccessFiles: []string{},
		ErrorFiles:   []FileError{},
		OrphanFiles:  []string{},
	}

	for _, r := range results {
		if r == nil {
			out.Cancelled = true
			continue
		}
		out.TotalFiles++

		switch r.status {
		case fileSucceeded:
			out.SuccessCount++
			out.SuccessFiles = append(out.SuccessFiles, r.name)
		case fileOrphaned:
			out.ErrorCount++
			out.OrphanFiles = append(out.OrphanFiles, r.name)
		default:
			out.ErrorCount++
			out.ErrorFiles = append(out.ErrorFiles, FileError{
				Filename:     r.name,
				ErrorMessage: r.reason,
			})
		}
	}

	return out
}

// importTally accumulates row results from concurrent inserts.
type importTally struct {
	mu      sync.Mutex
	success int
	errors  []RowError
}

func (t *importTally) succeeded() {
	t.mu.Lock()
	t.success++
	t.mu.Unlock()
}

func (t *importTally) failed(row CsvRow, err error) {
	t.mu.Lock()
	t.errors = append(t.errors, RowError{
		Row:   row.Line,
		Name:  row.Name,
		Error: err.Error(),
	})
	t.mu.Unlock()
}

// outcome returns the tally as an ImportOutcome with errors ordered by row.
func (t *importTally) outcome(total int, cancelled bool) *ImportOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	errs := make([]RowError, len(t.errors))
	copy(errs, t.errors)
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Row < errs[j].Row
	})

	return &ImportOutcome{
		SuccessCount: t.success,
		Errors:       errs,
		Total:        total,
		Cancelled:    cancelled,
	}
}

// progressTracker publishes round(done/total*100) after each completed unit.
// The callback runs under the tracker lock so observers never see the
// percentage go backwards.
type progressTracker struct {
	mu    sync.Mutex
	done  int
	total int
	fn    ProgressFunc
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn}
}

func (p *progressTracker) step() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.fn != nil {
		p.fn(percentOf(p.done, p.total))
	}
}

// percentOf returns round(done/total*100), clamped to 0-100.
func percentOf(done, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(done) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
