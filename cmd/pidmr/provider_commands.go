package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pidmr/internal/api"
)

func newProviderCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage registered PID providers",
	}
	cmd.AddCommand(
		newProviderListCommand(flags),
		newProviderShowCommand(flags),
		newProviderCreateCommand(flags),
		newProviderUpdateCommand(flags),
		newProviderDeleteCommand(flags),
		newProviderStatusCommand(flags),
	)
	return cmd
}

func parseProviderID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("provider id must be a positive integer, got %q", arg)
	}
	return id, nil
}

func newProviderListCommand(flags *globalFlags) *cobra.Command {
	var page, size int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			listed, err := cc.client.ListProviders(cmd.Context(), page, size)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), listed)
			}

			rows := make([][]string, 0, len(listed.Content))
			for _, p := range listed.Content {
				rows = append(rows, []string{
					fmt.Sprintf("%d", p.ID),
					p.Type,
					p.Name,
					p.Status,
					actionIDs(p.Actions),
					fmt.Sprintf("%d", len(p.Regexes)),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"id", "type", "name", "status", "actions", "rules"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d providers)\n",
				listed.NumberOfPage, listed.TotalPages, listed.TotalElements)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 0, "page size (default from server)")
	return cmd
}

func newProviderShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one provider in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			p, err := cc.client.GetProvider(cmd.Context(), id)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Type)
			fmt.Fprintf(out, "  id:        %d\n", p.ID)
			fmt.Fprintf(out, "  status:    %s\n", p.Status)
			if p.Description != "" {
				fmt.Fprintf(out, "  about:     %s\n", p.Description)
			}
			if p.Example != "" {
				fmt.Fprintf(out, "  example:   %s\n", p.Example)
			}
			if p.CreatedBy != "" {
				fmt.Fprintf(out, "  created by: %s\n", p.CreatedBy)
			}
			fmt.Fprintf(out, "  actions:   %s\n", actionIDs(p.Actions))
			fmt.Fprintln(out, "  rules:")
			for _, expr := range p.Regexes {
				fmt.Fprintf(out, "    %s\n", expr)
			}
			return nil
		},
	}
}

func newProviderCreateCommand(flags *globalFlags) *cobra.Command {
	var req api.ProviderCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new provider (starts in pending review)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			created, err := cc.client.CreateProvider(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered provider %d (%s) with status %s\n",
				created.ID, created.Type, created.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "", "provider type, e.g. ark or doi")
	cmd.Flags().StringVar(&req.Name, "name", "", "human readable name")
	cmd.Flags().StringVar(&req.Description, "description", "", "short description")
	cmd.Flags().StringVar(&req.Example, "example", "", "example identifier")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "registrant identity")
	cmd.Flags().StringSliceVar(&req.Actions, "action", nil, "supported action id (repeatable)")
	cmd.Flags().StringArrayVar(&req.Regexes, "regex", nil, "matching rule (repeatable, evaluated in order)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("regex")
	return cmd
}

func newProviderUpdateCommand(flags *globalFlags) *cobra.Command {
	var req api.ProviderUpdateRequest

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a provider (resets its status to pending)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			updated, err := cc.client.UpdateProvider(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated provider %d, status is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "", "new provider type")
	cmd.Flags().StringVar(&req.Name, "name", "", "new name")
	cmd.Flags().StringVar(&req.Description, "description", "", "new description")
	cmd.Flags().StringVar(&req.Example, "example", "", "new example identifier")
	cmd.Flags().StringSliceVar(&req.Actions, "action", nil, "replacement action ids (repeatable)")
	cmd.Flags().StringArrayVar(&req.Regexes, "regex", nil, "replacement rules (repeatable)")
	return cmd
}

func newProviderDeleteCommand(flags *globalFlags) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a provider and its rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("pass --yes to confirm deletion")
			}
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			if err := cc.client.DeleteProvider(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted provider %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")
	return cmd
}

func newProviderStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <pending|approved|rejected|deprecated>",
		Short: "Move a provider through its review lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			updated, err := cc.client.SetProviderStatus(cmd.Context(), id, strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provider %d (%s) is now %s\n", updated.ID, updated.Type, updated.Status)
			return nil
		},
	}
}
