package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // sqlite file; empty means in-memory
	DSN      string // overrides every other connection field
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Options  map[string]string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the configured database and applies pool limits.
func Open(cfg Config) (*gorm.DB, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := d.buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d.open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if d.name == "sqlite" {
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
		}
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// AutoMigrateAndPromote migrates the schema and promotes superuserEmail when it is set.
func AutoMigrateAndPromote(db *gorm.DB, superuserEmail string) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if strings.TrimSpace(superuserEmail) == "" {
		return nil
	}
	if err := PromoteSuperuser(db, superuserEmail); err != nil {
		return fmt.Errorf("promote superuser: %w", err)
	}
	return nil
}
