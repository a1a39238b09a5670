package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pidmr/internal/config"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap the configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(flags),
		newConfigShowCommand(flags),
		newConfigPathCommand(flags),
	)
	return cmd
}

func newConfigInitCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, fromFile, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if fromFile {
				fmt.Fprintf(out, "source: %s\n", path)
			} else {
				fmt.Fprintln(out, "source: built-in defaults")
			}
			fmt.Fprintf(out, "data dir:  %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log dir:   %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "bind:      %s\n", cfg.Server.Bind)
			fmt.Fprintf(out, "page size: %d (max %d)\n", cfg.Server.DefaultPageSize, cfg.Server.MaxPageSize)
			fmt.Fprintf(out, "logging:   %s at %s\n", cfg.Logging.Format, cfg.Logging.Level)
			fmt.Fprintf(out, "keycloak:  enabled=%t\n", cfg.Keycloak.Enabled)
			return nil
		},
	}
}

func newConfigPathCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, fromFile, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if fromFile {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not present, using defaults)\n", path)
			return nil
		},
	}
}
