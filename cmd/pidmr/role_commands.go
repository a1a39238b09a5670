package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRoleCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage realm roles for registry users",
	}
	cmd.AddCommand(
		newRoleListCommand(flags),
		newRoleAssignCommand(flags),
		newRoleRemoveCommand(flags),
		newRoleMembersCommand(flags),
	)
	return cmd
}

func newRoleListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assignable realm roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			roles, err := cc.client.Roles(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), roles)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(roles, "\n"))
			return nil
		},
	}
}

func newRoleAssignCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <user> <role>...",
		Short: "Grant realm roles to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			if err := cc.client.AssignRoles(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", strings.Join(args[1:], ", "), args[0])
			return nil
		},
	}
}

func newRoleRemoveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user> <role>...",
		Short: "Revoke realm roles from a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			if err := cc.client.RemoveRoles(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", strings.Join(args[1:], ", "), args[0])
			return nil
		},
	}
}

func newRoleMembersCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "members <role>",
		Short: "List the users holding a realm role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			members, err := cc.client.RoleMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), members)
			}

			rows := make([][]string, 0, len(members))
			for _, member := range members {
				rows = append(rows, []string{member.ID, member.Username, member.Email})
			}
			renderTable(cmd.OutOrStdout(), []string{"id", "username", "email"}, rows)
			return nil
		},
	}
}
