package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/batchingest/internal/core"
)

// now is replaced in tests.
var now = time.Now

// Document is an exportable rendering of an outcome.
type Document struct {
	Title       string     `json:"title"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Summary     Summary    `json:"summary"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
}

// MediaDocument builds a document with one row per processed file.
func MediaDocument(o *core.UploadOutcome) Document {
	items := mediaItems(o)
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Ref, it.Status, it.Detail}
	}
	return Document{
		Title:       "Media upload report",
		GeneratedAt: now().UTC(),
		Summary:     MediaSummary(o),
		Columns:     []string{"file", "status", "detail"},
		Rows:        rows,
	}
}

// ImportDocument builds a document with one row per failed CSV row.
func ImportDocument(o *core.ImportOutcome) Document {
	items := importItems(o)
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Ref, it.Name, it.Detail}
	}
	return Document{
		Title:       "Participant import report",
		GeneratedAt: now().UTC(),
		Summary:     ImportSummary(o),
		Columns:     []string{"row", "name", "error"},
		Rows:        rows,
	}
}

// WriteCSV writes the column header followed by the rows. Summary counters
// are not part of the CSV form.
func (d Document) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteJSON writes the whole document as indented JSON.
func (d Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Filename suggests a download name such as "import-20260102-150405.csv".
func (d Document) Filename(ext string) string {
	return string(d.Summary.Kind) + "-" + d.GeneratedAt.Format("20060102-150405") + "." + ext
}

// Count is one labelled summary counter.
type Count struct {
	Label string
	Value int
}

// Counts returns the summary counters in display order.
func (s Summary) Counts() []Count {
	counts := []Count{
		{"Total", s.Total},
		{"Succeeded", s.Succeeded},
		{"Failed", s.Failed},
	}
	if s.Kind == core.RunMedia {
		counts = append(counts, Count{"No match", s.Orphaned})
	}
	return counts
}
