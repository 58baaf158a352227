// Package storage provides SQLite persistence and CSV import/export for
// Powerball draw history.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
}

// Config holds database configuration settings.
type Config struct {
	// Path is the file path to the SQLite database.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string

	// BusyTimeout sets how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode. Default: WAL.
	JournalMode string

	// Synchronous sets the SQLite synchronous mode. Default: NORMAL.
	Synchronous string

	// AutoMigrate runs pending schema migrations on Open.
	AutoMigrate bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
	}
}

// Open creates a new database connection with the given configuration.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if config.Path != ":memory:" {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if config.AutoMigrate && config.Path != ":memory:" {
		mgr, err := NewMigrationManager(config.Path)
		if err != nil {
			return nil, fmt.Errorf("create migration manager: %w", err)
		}
		if err := mgr.Up(); err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := mgr.Close(); err != nil {
			return nil, fmt.Errorf("close migration manager: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=%s&_synchronous=%s",
		config.Path,
		config.BusyTimeout.Milliseconds(),
		config.JournalMode,
		config.Synchronous,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("close database after ping error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
