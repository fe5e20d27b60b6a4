package cli

import (
	"github.com/architeacher/gateways/internal/runtime"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server", "run"},
		Short:   "Run the public and admin HTTP servers",
		Long:    `Run the public API and the admin server until SIGINT or SIGTERM is received.`,
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runtime.New().Run()
		},
	}
}
