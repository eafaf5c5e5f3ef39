package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// MediaPreview renders a media outcome as plain text.
func MediaPreview(o *core.UploadOutcome) string {
	s := MediaSummary(o)

	var b strings.Builder
	fmt.Fprintf(&b, "Media upload: %s files\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "  Uploaded: %s\n", humanize.Comma(int64(s.Succeeded)))
	fmt.Fprintf(&b, "  Failed:   %s\n", humanize.Comma(int64(s.Failed)))
	fmt.Fprintf(&b, "  No match: %s\n", humanize.Comma(int64(s.Orphaned)))
	if s.Cancelled {
		b.WriteString("  Cancelled: files after the last one listed were not processed\n")
	}

	items := mediaItems(o)
	if len(items) > 0 {
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.Ref, it.Status, it.Detail}
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"File", "Status", "Detail"}, rows, nil))
		b.WriteString("\n")
	}

	return b.String()
}

// ImportPreview renders an import outcome as plain text.
func ImportPreview(o *core.ImportOutcome) string {
	s := ImportSummary(o)

	var b strings.Builder
	fmt.Fprintf(&b, "Participant import: %s rows\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "  Created: %s\n", humanize.Comma(int64(s.Succeeded)))
	fmt.Fprintf(&b, "  Failed:  %s\n", humanize.Comma(int64(s.Failed)))
	if s.Cancelled {
		fmt.Fprintf(&b, "  Cancelled: %s rows were not processed\n",
			humanize.Comma(int64(s.Total-s.Succeeded-s.Failed)))
	}

	items := importItems(o)
	if len(items) > 0 {
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.Ref, it.Name, it.Detail}
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Row", "Name", "Error"}, rows, []text.Align{text.AlignRight}))
		b.WriteString("\n")
	}

	return b.String()
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
