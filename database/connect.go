// Package database opens and migrates the storefront database.
package database

import (
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/ncgordeev/phone-shop/config"
	"github.com/ncgordeev/phone-shop/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database described by cfg and verifies the
// connection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	level, err := ParseLogLevel(cfg.DBLogLevel)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get the underlying SQL DB object for connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB object: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Printf("connected to database (driver %s)", cfg.DBDriver)
	return db, nil
}

// dialector picks pgx (the gorm postgres default) or lib/pq, which
// registers itself as "postgres".
func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == "postgres" {
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.DatabaseURL,
		})
	}
	return postgres.Open(cfg.DatabaseURL)
}

// Migrate creates or updates the tables of every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.Tables()...)
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ParseLogLevel maps silent, error, warn and info to GORM log levels.
func ParseLogLevel(s string) (logger.LogLevel, error) {
	switch s {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "", "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	default:
		return 0, fmt.Errorf("unsupported DB_LOG_LEVEL %q", s)
	}
}
