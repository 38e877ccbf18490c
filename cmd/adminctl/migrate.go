package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/newsdesk/internal/app"
	"github.com/simp-lee/newsdesk/internal/config"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.Context(), true, func(cfg *config.Config, _ *app.Services) error {
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Driver)
				return nil
			})
		},
	}
}
