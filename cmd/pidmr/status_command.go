package main

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/spf13/cobra"
)

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and registry health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newCommandContext(flags)
			if err != nil {
				return err
			}

			status, err := cc.client.Status(cmd.Context())
			if err != nil {
				var opErr *net.OpError
				if errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) {
					fmt.Fprintln(cmd.OutOrStdout(), "daemon: not running")
					return nil
				}
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "daemon:    running (%s)\n", status.Version)
			fmt.Fprintf(out, "database:  %s\n", status.DBPath)
			fmt.Fprintf(out, "healthy:   %t\n", status.Readable && status.IntegrityOK)
			fmt.Fprintf(out, "providers: %d\n", status.Providers)
			fmt.Fprintf(out, "rules:     %d\n", status.Rules)
			if status.Error != "" {
				fmt.Fprintf(out, "error:     %s\n", status.Error)
			}
			return nil
		},
	}
}
