// Package store persists deck state in SQLite: the columns with their
// encoded filters and cursors, the encoded event log and per-source
// ingestion offsets.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS columns (
    ordinal     INTEGER NOT NULL,
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    pinned      INTEGER NOT NULL DEFAULT 0,
    filters     TEXT NOT NULL DEFAULT '',
    cursor      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS meta (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_ns  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS source_offsets (
    name        TEXT PRIMARY KEY,
    read_offset INTEGER NOT NULL,
    updated_ns  INTEGER NOT NULL
);
`

const logKey = "event_log"

// SQLiteStore is the deck state database
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveColumns replaces the stored columns with states, keeping their order
func (s *SQLiteStore) SaveColumns(states []registry.ColumnState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM columns`); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO columns (ordinal, id, title, pinned, filters, cursor)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, st := range states {
		if _, err := stmt.Exec(i, st.ID, st.Title, boolToInt(st.Pinned), st.Filters, st.Cursor); err != nil {
			return fmt.Errorf("insert column %s: %w", st.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit columns: %w", err)
	}
	return nil
}

// LoadColumns returns the stored columns in saved order
func (s *SQLiteStore) LoadColumns() ([]registry.ColumnState, error) {
	rows, err := s.db.Query(`SELECT id, title, pinned, filters, cursor FROM columns ORDER BY ordinal`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var states []registry.ColumnState
	for rows.Next() {
		var st registry.ColumnState
		var pinned int
		if err := rows.Scan(&st.ID, &st.Title, &pinned, &st.Filters, &st.Cursor); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		st.Pinned = pinned != 0
		states = append(states, st)
	}
	return states, rows.Err()
}

// SaveLog stores the encoded event log
func (s *SQLiteStore) SaveLog(encoded string) error {
	return s.putMeta(logKey, encoded)
}

// LoadLog returns the encoded event log, or "" when none was saved
func (s *SQLiteStore) LoadLog() (string, error) {
	return s.getMeta(logKey)
}

// SaveOffset records how far the named source has read
func (s *SQLiteStore) SaveOffset(name string, offset int64) error {
	_, err := s.db.Exec(`
		INSERT INTO source_offsets (name, read_offset, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET read_offset = excluded.read_offset, updated_ns = excluded.updated_ns`,
		name, offset, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save offset %s: %w", name, err)
	}
	return nil
}

// LoadOffset returns the saved offset of the named source; ok is false when
// none was saved
func (s *SQLiteStore) LoadOffset(name string) (offset int64, ok bool, err error) {
	err = s.db.QueryRow(`SELECT read_offset FROM source_offsets WHERE name = ?`, name).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load offset %s: %w", name, err)
	}
	return offset, true, nil
}

func (s *SQLiteStore) putMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_ns = excluded.updated_ns`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
