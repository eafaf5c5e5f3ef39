package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List participants of an event with their codes and media counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ctx.filter()
			if err != nil {
				return err
			}

			eng, err := ctx.openEngine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			participants, err := eng.records.ListParticipants(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(participants) == 0 {
				fmt.Fprintln(out, "No participants.")
				return nil
			}

			rows := make([][]string, len(participants))
			for i, p := range participants {
				code := p.Code
				if code == "" {
					code = "-"
				}
				rows[i] = []string{p.ID, p.Name, p.ClassName, code, strconv.Itoa(p.MediaCount)}
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Name", "Class", "Code", "Media"},
				rows,
				[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight},
			))
			return nil
		},
	}
}
