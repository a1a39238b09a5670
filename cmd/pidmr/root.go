package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"pidmr/internal/client"
	"pidmr/internal/config"
)

type globalFlags struct {
	configPath string
	serverURL  string
	token      string
	asJSON     bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "pidmr",
		Short:         "Identify, validate and resolve persistent identifiers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flags.serverURL, "server", "", "daemon base URL (default from config)")
	root.PersistentFlags().StringVar(&flags.token, "token", "", "bearer token for admin endpoints")
	root.PersistentFlags().BoolVar(&flags.asJSON, "json", false, "emit raw JSON instead of tables")

	root.AddCommand(
		newIdentifyCommand(flags),
		newValidateCommand(flags),
		newResolveCommand(flags),
		newProviderCommand(flags),
		newActionCommand(flags),
		newRoleCommand(flags),
		newStatusCommand(flags),
		newConfigCommand(flags),
	)
	return root
}

// commandContext resolves the effective configuration and builds a daemon
// client for one command invocation.
type commandContext struct {
	cfg    *config.Config
	client *client.Client
}

func newCommandContext(flags *globalFlags) (*commandContext, error) {
	cfg, _, _, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	baseURL := flags.serverURL
	if baseURL == "" {
		host, port, err := net.SplitHostPort(cfg.Server.Bind)
		if err != nil {
			return nil, fmt.Errorf("parse bind address %q: %w", cfg.Server.Bind, err)
		}
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		baseURL = fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
	}

	token := flags.token
	if token == "" {
		token = cfg.Server.Token
	}

	return &commandContext{
		cfg:    cfg,
		client: client.New(baseURL, token),
	}, nil
}
