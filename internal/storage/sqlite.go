package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrUnavailable means the underlying store could not be opened.
// Callers treat this as "no data" and bootstrap a default page.
var ErrUnavailable = errors.New("storage unavailable")

// ErrWriteFailed means an individual put failed (quota, I/O). In-memory
// state stays authoritative; the last successful disk state remains.
var ErrWriteFailed = errors.New("storage write failed")

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite file at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %v", ErrUnavailable, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrUnavailable, err)
	}
	// SQLite only supports one writer — limit to single connection to prevent SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			objects_json TEXT NOT NULL DEFAULT '[]',
			connections_json TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_created ON pages(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// ALTER TABLE fails if column already exists — safe to ignore
			if strings.Contains(m, "ALTER TABLE") && strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}

	return nil
}
