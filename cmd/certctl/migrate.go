package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-certificates/internal/app"
	"github.com/yungbote/neurobridge-certificates/internal/data/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		if dsn, _ := cmd.Flags().GetString("sqlite"); strings.TrimSpace(dsn) != "" {
			theDB, err := db.OpenSQLite(log, dsn, true)
			if err != nil {
				return err
			}
			if err := db.AutoMigrateAll(theDB); err != nil {
				return fmt.Errorf("sqlite automigrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated", dsn)
			return nil
		}

		cfg := app.LoadConfig(log)
		pg, err := db.NewPostgresService(log, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			return fmt.Errorf("postgres automigrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrated", cfg.Postgres.Host+"/"+cfg.Postgres.Name)
		return nil
	},
}
