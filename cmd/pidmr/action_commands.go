package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newActionCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Inspect resolution actions and modes",
	}
	cmd.AddCommand(newActionListCommand(flags), newActionModesCommand(flags))
	return cmd
}

func newActionListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the resolution actions providers can support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			actions, err := cc.client.Actions(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), actions)
			}

			rows := make([][]string, 0, len(actions))
			for _, action := range actions {
				rows = append(rows, []string{action.ID, action.Name, action.Mode})
			}
			renderTable(cmd.OutOrStdout(), []string{"id", "name", "mode"}, rows)
			return nil
		},
	}
}

func newActionModesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the distinct resolution modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			modes, err := cc.client.ResolutionModes(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), modes)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(modes, "\n"))
			return nil
		},
	}
}
