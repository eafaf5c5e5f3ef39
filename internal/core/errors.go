package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is wrapped by MissingColumnError.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyInput is returned when a CSV has no header line.
	ErrEmptyInput = errors.New("empty file")

	// ErrNoFiles is returned when a media run is started without files.
	ErrNoFiles = errors.New("no files provided")

	// ErrInvalidScope wraps the validation failure of an ImportScope.
	ErrInvalidScope = errors.New("invalid import scope")

	// ErrRunNotFound is returned for unknown or expired run IDs.
	ErrRunNotFound = errors.New("run not found")

	// errNoMatchingEntity is the orphan reason for unknown codes.
	errNoMatchingEntity = errors.New("no matching participant")
)

// MissingColumnError reports that no header column satisfies a required field.
type MissingColumnError struct {
	Field   string   // Logical field name, e.g. "name"
	Aliases []string // Accepted header aliases
	Header  []string // Header cells that were inspected
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q (accepted: %s; found: %s)",
		e.Field, strings.Join(e.Aliases, ", "), strings.Join(e.Header, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
