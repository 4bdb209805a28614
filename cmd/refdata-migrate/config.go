package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/refdata-io/refdata/internal/config"
)

// ErrDatabaseURLRequired is returned when DATABASE_URL is unset or empty.
var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required")

// Config holds the migration tool's configuration. Migrations themselves
// are compiled into the binary (see the migrations package), so only the
// target database and the tracking table are configurable.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// MigrationTable is the name of the table golang-migrate uses to
	// track the applied version.
	MigrationTable string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    config.GetEnvStr("DATABASE_URL", ""),
		MigrationTable: config.GetEnvStr("MIGRATION_TABLE", "schema_migrations"),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrDatabaseURLRequired
	}

	return cfg, nil
}

// String renders the configuration with the database password masked,
// safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DatabaseURL: %s, MigrationTable: %s}",
		maskDatabaseURL(c.DatabaseURL), c.MigrationTable)
}

func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxx")
	}

	return u.String()
}
