package cli

import (
	"encoding/json"
	"fmt"

	"github.com/architeacher/gateways/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Print the effective configuration",
		Long:    `Print the configuration resolved from the environment as JSON. Credentials are never printed.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Init()
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if err := encoder.Encode(cfg); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}

			return nil
		},
	}
}
