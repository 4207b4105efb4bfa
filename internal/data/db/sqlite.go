package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

// OpenSQLite opens a file (or in-memory) database for local operator runs and
// tests. Foreign keys stay off to match the Postgres setup.
func OpenSQLite(logg *logger.Logger, dsn string, quiet bool) (*gorm.DB, error) {
	gl := newGormLogger()
	if quiet {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// sqlite serialises writers; a single connection also keeps an in-memory
	// database alive for the lifetime of the handle
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if logg != nil {
		logg.With("service", "SQLite").Debug("SQLite opened", "dsn", dsn)
	}
	return db, nil
}
