package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-certificates/internal/app"
	"github.com/yungbote/neurobridge-certificates/internal/data/db"
)

var rootCmd = &cobra.Command{
	Use:           "certctl",
	Short:         "Operate the certificate ledger",
	Long:          "certctl issues, verifies and repairs course completion certificates against the configured database and bucket.",
	SilenceUsage: true,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("sqlite", "", "SQLite DSN to use instead of the POSTGRES_* settings")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reissueCmd)
}

// openApp wires the full service graph. With --sqlite the database is opened
// and migrated locally; otherwise app.New connects to Postgres.
func openApp(cmd *cobra.Command) (*app.App, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dsn, _ := cmd.Flags().GetString("sqlite")
	if strings.TrimSpace(dsn) == "" {
		return app.New(ctx)
	}

	log, err := app.NewLogger()
	if err != nil {
		return nil, err
	}
	cfg := app.LoadConfig(log)
	theDB, err := db.OpenSQLite(log, dsn, true)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, fmt.Errorf("sqlite automigrate: %w", err)
	}
	return app.NewWithDB(ctx, log, cfg, theDB)
}

func parseID(flag, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--%s: invalid uuid %q", flag, raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
