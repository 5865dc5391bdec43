package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotInitialized is returned when the database schema has not been
// created yet (no scan has ever run against this database file).
var ErrNotInitialized = errors.New("database not initialized, run 'arch-cleaner scan' first")

// Store provides SQLite database operations for arch-cleaner: the scan
// inventory, the package mirror and the action feedback log.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the specified database path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL mode keeps readers from blocking the single writer
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// wrapWriteErr maps a missing-table failure onto ErrNotInitialized so
// callers can distinguish "never scanned" from real database errors.
func wrapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// logReadErr records a failed read. Read paths degrade to empty results
// so a corrupt or missing inventory never takes the CLI down with it.
func logReadErr(op string, err error) {
	log.WithError(err).Warnf("store: %s failed, returning empty result", op)
}
