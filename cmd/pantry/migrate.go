package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runMigrations(cmd, cfg)
		},
	}
}

// runMigrations opens the configured SQL database, which applies every
// pending migration. The s3 backend has no schema.
func runMigrations(cmd *cobra.Command, cfg *config.Config) error {
	var open func() error
	switch cfg.PersistBackend {
	case config.BackendSQLite:
		open = func() error {
			d, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			return d.Close()
		}
	case config.BackendPostgres:
		open = func() error {
			d, err := db.OpenPostgres(cfg.PostgresDSN)
			if err != nil {
				return err
			}
			return d.Close()
		}
	default:
		cmd.Printf("backend %s has no schema to migrate\n", cfg.PersistBackend)
		return nil
	}

	if err := open(); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.PersistBackend, err)
	}
	cmd.Printf("%s schema is up to date\n", cfg.PersistBackend)
	return nil
}
