package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// MediaReportHTML renders a media outcome as an HTML fragment.
func MediaReportHTML(o *core.UploadOutcome) templ.Component {
	return reportComponent("Media upload", MediaSummary(o), []string{"File", "Status", "Detail"}, mediaItems(o), false)
}

// ImportReportHTML renders an import outcome as an HTML fragment.
func ImportReportHTML(o *core.ImportOutcome) templ.Component {
	return reportComponent("Participant import", ImportSummary(o), []string{"Row", "Name", "Error"}, importItems(o), true)
}

func reportComponent(title string, s Summary, headers []string, items []item, withName bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		fmt.Fprintf(&b, `<section class="report report-%s">`, templ.EscapeString(string(s.Kind)))
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(title))

		b.WriteString(`<dl class="report-summary">`)
		for _, c := range s.Counts() {
			fmt.Fprintf(&b, `<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(c.Label), humanize.Comma(int64(c.Value)))
		}
		b.WriteString(`</dl>`)

		if s.Cancelled {
			b.WriteString(`<p class="report-cancelled">Run was cancelled before all items were processed.</p>`)
		}

		if len(items) > 0 {
			b.WriteString(`<table class="report-items"><thead><tr>`)
			for _, h := range headers {
				fmt.Fprintf(&b, `<th>%s</th>`, templ.EscapeString(h))
			}
			b.WriteString(`</tr></thead><tbody>`)
			for _, it := range items {
				fmt.Fprintf(&b, `<tr class="status-%s">`, templ.EscapeString(strings.ReplaceAll(it.Status, " ", "-")))
				fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(it.Ref))
				if withName {
					fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(it.Name))
				} else {
					fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(it.Status))
				}
				fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(it.Detail))
				b.WriteString(`</tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}

		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
