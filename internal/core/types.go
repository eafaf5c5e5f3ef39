package core

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Entity is a record that media files are reconciled against.
// Code is the join key embedded in uploaded filenames; entities without
// a code are unreachable by the media pipeline.
type Entity struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

// MediaFile is a single uploaded file handed to the media orchestrator.
type MediaFile struct {
	Name string
	Data []byte
	Size int64 // Size in bytes; derived from len(Data) when zero
}

// FileError describes a file that failed after its code was resolved.
type FileError struct {
	Filename     string `json:"filename"`
	ErrorMessage string `json:"errorMessage"`
}

// UploadOutcome is the result of one media upload run.
//
// SuccessCount + ErrorCount == TotalFiles. OrphanFiles holds the files with no
// extractable or resolvable code; they are counted in ErrorCount but are not
// repeated in ErrorFiles.
type UploadOutcome struct {
	TotalFiles   int         `json:"totalFiles"`
	SuccessCount int         `json:"successCount"`
	ErrorCount   int         `json:"errorCount"`
	SuccessFiles []string    `json:"successFiles"`
	ErrorFiles   []FileError `json:"errorFiles"`
	OrphanFiles  []string    `json:"orphanFiles"`
	Cancelled    bool        `json:"cancelled,omitempty"`
}

// CsvRow is a parsed, structurally valid CSV data row.
type CsvRow struct {
	Line   int               // 1-based source line (header is line 1)
	Name   string            // Value of the first required column, never empty
	Fields map[string]string // Optional fields keyed by ColumnSpec.Field
}

// ImportScope identifies where imported rows are created.
type ImportScope struct {
	TenantID string `json:"tenantId" validate:"required"`
	SchoolID string `json:"schoolId" validate:"required"`
	EventID  string `json:"eventId" validate:"required"`
}

// Validate reports whether every scope identifier is present.
func (s ImportScope) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScope, err)
	}
	return nil
}

// RowError describes a row that failed to insert.
type RowError struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportOutcome is the result of one bulk import run.
// SuccessCount + len(Errors) <= Total.
type ImportOutcome struct {
	SuccessCount int        `json:"successCount"`
	Errors       []RowError `json:"errors"`
	Total        int        `json:"total"`
	Cancelled    bool       `json:"cancelled,omitempty"`
}

// MediaRecord is the metadata row written after a successful blob write.
type MediaRecord struct {
	EntityID         string
	StorageKey       string
	URL              string
	OriginalFilename string
	SizeBytes        int64
	ContentType      string
}

// EntityRecord is a CSV row merged with its import scope.
type EntityRecord struct {
	ID       string
	TenantID string
	SchoolID string
	EventID  string
	Name     string
	Fields   map[string]string
}

// EntityFilter narrows ListEntities. Empty fields are not filtered on.
type EntityFilter struct {
	TenantID string
	SchoolID string
	EventID  string
}

// ProgressFunc receives a percentage (0-100) after each unit of work.
// It is called synchronously from the running orchestrator.
type ProgressFunc func(percent int)

// RunKind distinguishes the two kinds of background runs.
type RunKind string

const (
	RunMedia  RunKind = "media"
	RunImport RunKind = "import"
)

// RunPhase indicates the current stage of a background run.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseIndexing   RunPhase = "indexing"
	PhaseProcessing RunPhase = "processing"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
	PhaseCancelled  RunPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p RunPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// RunProgress is a snapshot of a background run.
type RunProgress struct {
	RunID   string   `json:"runId"`
	Kind    RunKind  `json:"kind"`
	Phase   RunPhase `json:"phase"`
	Percent int      `json:"percent"`
	Error   string   `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// RunResult contains the final result of a background run.
// Exactly one of Media and Import is set unless the run failed.
type RunResult struct {
	RunID    string         `json:"runId"`
	Kind     RunKind        `json:"kind"`
	Media    *UploadOutcome `json:"media,omitempty"`
	Import   *ImportOutcome `json:"import,omitempty"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
}
