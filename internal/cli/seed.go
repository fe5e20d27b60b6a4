package cli

import (
	"fmt"

	"github.com/architeacher/gateways/internal/runtime"
	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo inventory",
		Long: `Connect to the configured store, bootstrap the schema when enabled and load
three demo gateways and thirteen devices. Existing records are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := runtime.Seed(cmd.Context(), nil)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"gateways created: %d\ndevices created: %d\ndevices attached: %d\nskipped: %d\n",
				result.GatewaysCreated, result.DevicesCreated, result.Attached, result.Skipped,
			)

			return err
		},
	}
}
