package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/report"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "upload DIR",
		Short: "Upload every file in DIR and link it to the participant its name carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ctx.filter()
			if err != nil {
				return err
			}

			files, total, err := readMediaDir(args[0])
			if err != nil {
				return err
			}

			eng, err := ctx.openEngine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploading %d files (%s)\n", len(files), humanize.Bytes(uint64(total)))

			outcome, err := eng.service.UploadMedia(cmd.Context(), filter, files, progressPrinter(cmd.ErrOrStderr(), "Uploading"))
			if err != nil {
				return err
			}

			fmt.Fprint(out, report.MediaPreview(outcome))

			if exportPath != "" {
				if err := writeExport(exportPath, report.MediaDocument(outcome)); err != nil {
					return err
				}
				fmt.Fprintf(out, "Report written to %s\n", exportPath)
			}
			if outcome.Cancelled {
				return cmd.Context().Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write the report to this file (.csv or .json)")
	return cmd
}

// readMediaDir loads the regular, non-hidden files of dir in name order.
func readMediaDir(dir string) ([]core.MediaFile, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		files []core.MediaFile
		total int64
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		files = append(files, core.MediaFile{Name: entry.Name(), Data: data, Size: int64(len(data))})
		total += int64(len(data))
	}

	if len(files) == 0 {
		return nil, 0, fmt.Errorf("%w in %s", core.ErrNoFiles, dir)
	}
	return files, total, nil
}
