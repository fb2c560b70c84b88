package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/smartmilk/smart-milk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens an embedded database. dsn may be a file path or ":memory:".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	// A single connection keeps in-memory databases alive and serialises writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func MigrateSQLite(db *gorm.DB) error {
	for _, model := range []any{&models.User{}, &models.Sample{}, &models.DeviceStats{}} {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("db.AutoMigrate: %w", err)
		}
	}
	return nil
}
