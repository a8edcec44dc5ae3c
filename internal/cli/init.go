package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize planbook storage",
		Long: "Create the configuration and data directories, write a default config.yaml,\n" +
			"then create the database and seed the configured users.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, dataDir, err := a.attachBackend()
			if err != nil {
				return err
			}
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Planbook initialized in %s\n", dataDir)
			return nil
		},
	}
}
