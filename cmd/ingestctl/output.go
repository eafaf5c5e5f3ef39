package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/report"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderTable draws rounded borders on a terminal and plain ASCII otherwise.
func renderTable(out io.Writer, headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	if isTerminal(out) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(aligns))
	for i, align := range aligns {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// progressPrinter rewrites one status line on a terminal and stays silent
// otherwise.
func progressPrinter(w io.Writer, label string) core.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(percent int) {
		fmt.Fprintf(w, "\r%s %3d%%", label, percent)
		if percent >= 100 {
			fmt.Fprintln(w)
		}
	}
}

// writeExport writes doc to path as JSON when the extension is .json and
// as CSV otherwise.
func writeExport(path string, doc report.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = doc.WriteJSON(f)
	} else {
		err = doc.WriteCSV(f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
