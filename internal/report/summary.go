// Package report renders media and import outcomes for people: a text
// preview, an exportable document (CSV or JSON) and an HTML fragment.
//
// Every function here is read-only with respect to the outcome it is given.
package report

import "github.com/JonMunkholm/batchingest/internal/core"

// Item statuses used in previews and documents.
const (
	StatusUploaded = "uploaded"
	StatusFailed   = "failed"
	StatusNoMatch  = "no match"
	StatusError    = "error"
)

// Summary holds the counters shared by every rendering.
type Summary struct {
	Kind      core.RunKind `json:"kind"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Orphaned  int          `json:"orphaned"`
	Cancelled bool         `json:"cancelled"`
}

// MediaSummary counts a media outcome. Failed excludes orphans.
func MediaSummary(o *core.UploadOutcome) Summary {
	if o == nil {
		return Summary{Kind: core.RunMedia}
	}
	return Summary{
		Kind:      core.RunMedia,
		Total:     o.TotalFiles,
		Succeeded: o.SuccessCount,
		Failed:    len(o.ErrorFiles),
		Orphaned:  len(o.OrphanFiles),
		Cancelled: o.Cancelled,
	}
}

// ImportSummary counts an import outcome.
func ImportSummary(o *core.ImportOutcome) Summary {
	if o == nil {
		return Summary{Kind: core.RunImport}
	}
	return Summary{
		Kind:      core.RunImport,
		Total:     o.Total,
		Succeeded: o.SuccessCount,
		Failed:    len(o.Errors),
		Cancelled: o.Cancelled,
	}
}

// item is one detail line shared by the renderings.
type item struct {
	Ref    string // File name or row number
	Name   string // Participant name, imports only
	Status string
	Detail string
}

func mediaItems(o *core.UploadOutcome) []item {
	if o == nil {
		return nil
	}
	items := make([]item, 0, len(o.SuccessFiles)+len(o.ErrorFiles)+len(o.OrphanFiles))
	for _, f := range o.SuccessFiles {
		items = append(items, item{Ref: f, Status: StatusUploaded})
	}
	for _, fe := range o.ErrorFiles {
		items = append(items, item{Ref: fe.Filename, Status: StatusFailed, Detail: fe.ErrorMessage})
	}
	for _, f := range o.OrphanFiles {
		items = append(items, item{Ref: f, Status: StatusNoMatch, Detail: orphanDetail(f)})
	}
	return items
}

func orphanDetail(filename string) string {
	if _, ok := core.ExtractCode(filename); ok {
		return "code not registered for this event"
	}
	return "no code in filename"
}

func importItems(o *core.ImportOutcome) []item {
	if o == nil {
		return nil
	}
	items := make([]item, 0, len(o.Errors))
	for _, e := range o.Errors {
		items = append(items, item{Ref: itoa(e.Row), Name: e.Name, Status: StatusError, Detail: e.Error})
	}
	return items
}
