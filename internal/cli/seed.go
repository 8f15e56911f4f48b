package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadflow/internal/repositories"
	"leadflow/internal/services"
)

func newSeedCommand(opts *options) *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the configured system stages in a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				return fmt.Errorf("--workspace is required")
			}
			database, cfg, log, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			stages := services.NewStageService(
				repositories.NewStageRepository(database),
				cfg.Pipeline.SystemStages(""),
				log,
			)
			n, err := stages.SeedSystemStages(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d stage(s) created in %s\n", n, workspace)
			return nil
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace to seed")
	return cmd
}
