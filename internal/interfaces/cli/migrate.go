package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ipsentinel/ipsentinel/internal/infrastructure/database/postgres"
)

var migrationsPath string

func newMigrateCommand(deps *runtimeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "file://migrations", "Migrations source URL")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postgres.RunMigrations(deps.cfg.Postgres.DSN(), migrationsPath); err != nil {
				return err
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := postgres.MigrationStatus(deps.cfg.Postgres.DSN(), migrationsPath)
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Println("No migrations applied.")
				return nil
			}
			fmt.Printf("Schema version: %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}
