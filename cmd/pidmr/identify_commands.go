package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentifyCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <text>",
		Short: "Classify text as a valid, ambiguous or invalid PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			result, err := cc.client.Identify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			rows := [][]string{{result.Status, result.Type, result.Example, actionIDs(result.Actions)}}
			renderTable(cmd.OutOrStdout(), []string{"status", "type", "example", "actions"}, rows)
			return nil
		},
	}
}

func newValidateCommand(flags *globalFlags) *cobra.Command {
	var providerType string

	cmd := &cobra.Command{
		Use:   "validate <pid>",
		Short: "Check whether a PID fully matches an approved provider rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			validity, err := cc.client.Validate(cmd.Context(), args[0], providerType)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), validity)
			}

			rows := [][]string{{fmt.Sprintf("%t", validity.Valid), validity.Type}}
			renderTable(cmd.OutOrStdout(), []string{"valid", "type"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerType, "type", "", "restrict validation to one provider type")
	return cmd
}

func newResolveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <pid>",
		Short: "Show the provider backing a valid PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			resolved, err := cc.client.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), resolved)
			}

			rows := [][]string{{
				fmt.Sprintf("%d", resolved.ID),
				resolved.Type,
				resolved.Name,
				resolved.Status,
				actionIDs(resolved.Actions),
			}}
			renderTable(cmd.OutOrStdout(), []string{"id", "type", "name", "status", "actions"}, rows)
			return nil
		},
	}
}
