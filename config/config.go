// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAdminCredentials is returned when ADMIN_EMAIL or ADMIN_PASSWORD
// is not set.
var ErrMissingAdminCredentials = errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	// DBDriver selects the database/sql driver: "pgx" or "postgres" (lib/pq).
	DBDriver   string
	DBLogLevel string

	MediaBackend string
	MediaRoot    string
	MediaURL     string
	GCSBucket    string

	// OrderExpiry is how long an order may stay new. Zero disables expiry.
	OrderExpiry         time.Duration
	OrderExpiryInterval time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

// Load reads the given env files (".env" when none are named), then the
// process environment. Missing env files are ignored; variables already
// set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DBDriver:     getenv("DB_DRIVER", "pgx"),
		DBLogLevel:   getenv("DB_LOG_LEVEL", "warn"),
		MediaBackend: getenv("MEDIA_BACKEND", "local"),
		MediaRoot:    getenv("MEDIA_ROOT", "media"),
		MediaURL:     getenv("MEDIA_URL", "/media/"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
	}

	var err error
	if cfg.OrderExpiry, err = getDuration("ORDER_EXPIRY", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OrderExpiryInterval, err = getDuration("ORDER_EXPIRY_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	switch c.DBDriver {
	case "pgx", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.MediaBackend {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET must be set when MEDIA_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}
	if c.OrderExpiry < 0 {
		return errors.New("ORDER_EXPIRY must not be negative")
	}
	if c.OrderExpiry > 0 && c.OrderExpiryInterval <= 0 {
		return errors.New("ORDER_EXPIRY_INTERVAL must be positive")
	}
	return nil
}

// LoadAdmin reads the bootstrap admin credentials.
func LoadAdmin(envFiles ...string) (*AdminConfig, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	admin := &AdminConfig{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
	if admin.Email == "" || admin.Password == "" {
		return nil, ErrMissingAdminCredentials
	}
	return admin, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
