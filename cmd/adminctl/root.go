package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/newsdesk/internal/app"
	"github.com/simp-lee/newsdesk/internal/config"
)

// env is what every subcommand works with once the config is loaded.
type env struct {
	cfgFile string
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Newsdesk operator CLI",
		Long: `adminctl runs maintenance tasks against the newsdesk database.

Example usage:
  adminctl migrate                                  # Create or update tables
  adminctl create-superadmin --email a@b.c ...      # Bootstrap the first account
  adminctl export --collection news --format xlsx   # Dump a collection`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.cfgFile, "config", "configs/config.yaml", "path to configuration file")

	root.AddCommand(
		newMigrateCmd(e),
		newCreateSuperadminCmd(e),
		newExportCmd(e),
	)
	return root
}

// open loads the config and the database, optionally migrating it, and
// hands both to fn. Everything is released when fn returns.
func (e *env) open(ctx context.Context, migrate bool, fn func(cfg *config.Config, svc *app.Services) error) error {
	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer log.Close()

	db, err := app.OpenDatabase(ctx, cfg, log.Logger, migrate)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db)

	svc, err := app.NewServices(cfg, db, nil, log.Logger)
	if err != nil {
		return err
	}
	return fn(cfg, svc)
}
