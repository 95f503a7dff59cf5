package main

import (
	"github.com/spf13/cobra"

	"github.com/iho/cashdesk/internal/infrastructure/config"
	"github.com/iho/cashdesk/internal/infrastructure/postgres"
)

// migrateUp and migrateDown are swapped in tests.
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations (reads DATABASE_URL and MIGRATIONS_PATH)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migrateUp(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migrateDown(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	})

	return cmd
}
