// Package datastore opens the sqlite database that holds weight profile
// history and the gaming audit trail.
package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/contractiq/coherence/internal/datastore/entities"
	"github.com/contractiq/coherence/internal/errors"
)

// Models lists every entity managed by AutoMigrate.
func Models() []any {
	return []any{
		&entities.WeightProfileVersion{},
		&entities.GamingAudit{},
	}
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema. Use ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.Newf("database path is required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.Newf("failed to open database %s: %w", path, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	// sqlite allows a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Newf("failed to migrate database: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return db, nil
}

// Close releases the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
