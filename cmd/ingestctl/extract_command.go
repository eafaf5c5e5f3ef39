package main

import (
	"fmt"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/spf13/cobra"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract NAME...",
		Short: "Show the participant code each filename carries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, name := range args {
				code, ok := core.ExtractCode(name)
				if !ok {
					code = "-"
				}
				rows = append(rows, []string{name, code})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Filename", "Code"}, rows, nil))
			return nil
		},
	}
}
