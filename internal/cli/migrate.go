package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadflow/internal/db"
)

func newMigrateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, log, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.ApplyMigrations(cmd.Context(), database); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			database, _, log, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.RollbackMigrations(cmd.Context(), database, steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("migrations rolled back")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, _, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			v, dirty, err := db.MigrationVersion(cmd.Context(), database)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
