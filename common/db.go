package common

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDb opens the sqlite database at dbFile. The pool is pinned to a
// single connection: sqlite serialises writers anyway and ":memory:"
// databases are per-connection.
func ConnectDb(dbFile string) (*gorm.DB, error) {
	log.Debug().Str("sqlite_db", dbFile).Msg("attemptConnectDb")
	if dbFile == "" {
		return nil, fmt.Errorf("sqlite_db not set")
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error reaching sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Info().Str("sqlite_db", dbFile).Msg("opened sqlite db")
	return db, nil
}
