package db

import (
	"fmt"

	"github.com/zulandar/classlive/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the store migrates.
func AllModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Snapshot{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
