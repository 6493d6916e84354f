package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/storage"
	"financas/internal/storage/postgres"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or revert the database schema",
		Long:      "migrate moves the configured SQLite or Postgres database to the latest schema (up) or reverts every migration (down).",
		ValidArgs: []string{string(storage.Up), string(storage.Down)},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			dir := storage.Direction(args[0])

			var version uint
			switch cfg.DataBackend {
			case config.BackendSQLite:
				version, err = storage.Migrate(cfg.SQLiteDBPath, dir)
			case config.BackendPostgres:
				version, err = postgres.Migrate(cfg.DatabaseURL, dir == storage.Up)
			default:
				return fmt.Errorf("the %s backend has no schema to migrate", cfg.DataBackend)
			}
			if err != nil {
				return err
			}

			logger.Info("Migrations applied",
				log.FieldOperation, log.OpMigrate,
				"backend", cfg.DataBackend,
				"direction", string(dir),
				"version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
