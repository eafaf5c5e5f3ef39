package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/batchingest/internal/report"
	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Create participants from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.scope()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			eng, err := ctx.openEngine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			outcome, err := eng.service.ImportRows(cmd.Context(), scope, f, progressPrinter(cmd.ErrOrStderr(), "Importing"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.ImportPreview(outcome))

			if exportPath != "" {
				if err := writeExport(exportPath, report.ImportDocument(outcome)); err != nil {
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
