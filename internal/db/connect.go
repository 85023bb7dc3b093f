package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulandar/classlive/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the account store.
func DSN(cfg config.DatabaseConfig) string {
	auth := cfg.User
	if cfg.Password != "" {
		auth += ":" + cfg.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", auth, cfg.Host, cfg.Port, cfg.Name)
}

// Connect opens a GORM connection to the configured account store. For
// sqlite the parent directory of the database file is created on demand.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(DSN(cfg))
	case "sqlite", "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("db: create %s: %w", filepath.Dir(cfg.Path), err)
			}
		}
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect (%s): %w", cfg.Driver, err)
	}
	if cfg.Driver != "mysql" {
		// One handle per sqlite file; :memory: is per-connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db: connect (%s): %w", cfg.Driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open connects and migrates in one step.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
