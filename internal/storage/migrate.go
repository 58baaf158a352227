package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager handles database schema migrations.
type MigrationManager struct {
	migrate *migrate.Migrate
}

// NewMigrationManager creates a migration manager for the SQLite database
// at dbPath.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return nil, fmt.Errorf("create source driver: %w", err)
	}

	// Normalize Windows paths for the sqlite:// URL.
	normalizedPath := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && normalizedPath[0] != '/' {
		normalizedPath = "/" + normalizedPath
	}
	databaseURL := fmt.Sprintf("sqlite://%s", normalizedPath)

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}

	return &MigrationManager{migrate: m}, nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	err := mm.migrate.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the last migration.
func (mm *MigrationManager) Down() error {
	if err := mm.migrate.Down(); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migration manager's resources.
func (mm *MigrationManager) Close() error {
	sourceErr, dbErr := mm.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}
