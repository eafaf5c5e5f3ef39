package main

import (
	"fmt"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/spf13/cobra"
)

func newAssignCodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-code PARTICIPANT CODE",
		Short: "Give a participant, by ID or exact name, its media code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ctx.filter()
			if err != nil {
				return err
			}

			code, ok := core.ExtractCode(args[1])
			if !ok || len(code) != len(args[1]) {
				return fmt.Errorf("invalid code %q: expected QR followed by 7 digits", args[1])
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

			var matches []string
			for _, p := range participants {
				if p.ID == args[0] || p.Name == args[0] {
					matches = append(matches, p.ID)
				}
			}
			switch len(matches) {
			case 0:
				return fmt.Errorf("no participant %q in this event", args[0])
			case 1:
			default:
				return fmt.Errorf("%d participants match %q; use the ID from `ingestctl list`", len(matches), args[0])
			}

			if err := eng.records.AssignCode(cmd.Context(), matches[0], code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", code, matches[0])
			return nil
		},
	}
}
