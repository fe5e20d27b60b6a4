package cli

import (
	"github.com/architeacher/gateways/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the gatewayd command tree. Running it without a
// subcommand starts the servers.
func NewRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:   "gatewayd",
		Short: "Gateway and device inventory service",
		Long: `gatewayd keeps an inventory of network gateways and the peripheral devices
attached to them, and serves it over a JSON HTTP API.

All settings are read from the environment.`,
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve, newSeedCommand(), newConfigCommand())

	return root
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func version() string {
	if config.ServiceVersion == "" {
		return "dev"
	}

	if config.CommitSHA == "" {
		return config.ServiceVersion
	}

	return config.ServiceVersion + " (" + config.CommitSHA + ")"
}
