package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/refdata-io/refdata/migrations"
)

type (
	// MigrationRunner defines the commands the migration CLI supports.
	MigrationRunner interface {
		// Up applies all pending migrations.
		Up() error

		// Down rolls back the last migration.
		Down() error

		// Status shows the current migration status.
		Status() error

		// Version shows the current migration version.
		Version() error

		// Drop drops all tables (destructive operation).
		Drop() error

		// Close closes any open connections.
		Close() error
	}

	// migrationRunner implements MigrationRunner over golang-migrate,
	// reading migrations from the embedded migrations.Files FS.
	migrationRunner struct {
		migrate *migrate.Migrate
		db      *sql.DB
	}

	// migrateLogger adapts the standard logger to the migrate.Logger interface.
	migrateLogger struct{}
)

var _ migrate.Logger = (*migrateLogger)(nil)

// NewMigrationRunner opens the target database and builds a migrate
// instance over the embedded migration files.
func NewMigrationRunner(config *Config) (MigrationRunner, error) {
	log.Printf("Initializing migration runner with %s", config.String())

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: config.MigrationTable,
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.Files, ".")
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{}

	return &migrationRunner{migrate: m, db: db}, nil
}

// Up applies all pending migrations.
func (r *migrationRunner) Up() error {
	err := r.migrate.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No new migrations to apply")
	} else {
		log.Println("All migrations applied successfully")
	}

	return nil
}

// Down rolls back the last migration.
func (r *migrationRunner) Down() error {
	err := r.migrate.Steps(-1)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No migrations to roll back")
	} else {
		log.Println("Last migration rolled back successfully")
	}

	return nil
}

// Status shows the current migration version and whether the database is
// in a dirty state needing manual intervention.
func (r *migrationRunner) Status() error {
	ver, dirty, err := r.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("Migration status: no migrations applied yet")

			return nil
		}

		return fmt.Errorf("get migration version: %w", err)
	}

	status := "clean"
	if dirty {
		status = "dirty (needs manual intervention)"
	}

	fmt.Printf("Migration status: version %d (%s)\n", ver, status)

	return nil
}

// Version shows the current migration version.
func (r *migrationRunner) Version() error {
	ver, dirty, err := r.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("Current version: no migrations applied")

			return nil
		}

		return fmt.Errorf("get migration version: %w", err)
	}

	dirtyNote := ""
	if dirty {
		dirtyNote = " (dirty)"
	}

	fmt.Printf("Current version: %d%s\n", ver, dirtyNote)

	return nil
}

// Drop drops all tables (destructive operation).
func (r *migrationRunner) Drop() error {
	log.Println("WARNING: dropping all tables...")

	if err := r.migrate.Drop(); err != nil {
		return fmt.Errorf("drop operation failed: %w", err)
	}

	log.Println("All tables dropped successfully")

	return nil
}

// Close closes the migrate instance and the database connection.
func (r *migrationRunner) Close() error {
	var errs []error

	if r.migrate != nil {
		if sourceErr, dbErr := r.migrate.Close(); sourceErr != nil || dbErr != nil {
			if sourceErr != nil {
				errs = append(errs, fmt.Errorf("source close error: %w", sourceErr))
			}

			if dbErr != nil {
				errs = append(errs, fmt.Errorf("database close error: %w", dbErr))
			}
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database connection close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[MIGRATE] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return true
}
