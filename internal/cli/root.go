// Package cli implements leadflowctl, the operator tool for a leadflow deployment.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"leadflow/internal/config"
	"leadflow/internal/db"
	"leadflow/internal/logger"
)

type options struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "leadflowctl",
		Short:         "Operator commands for the leadflow pipeline service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to config.yaml")

	root.AddCommand(
		newTokenCommand(opts),
		newMigrateCommand(opts),
		newSeedCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "leadflowctl:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func (o *options) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Server.Env), nil
}

func (o *options) openDB(ctx context.Context) (*sql.DB, *config.Config, zerolog.Logger, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, nil, log, err
	}
	database, err := db.Open(ctx, cfg.Database.DSN, 2, 1)
	if err != nil {
		return nil, nil, log, err
	}
	return database, cfg, log, nil
}
