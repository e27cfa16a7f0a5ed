package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true,
}

const (
	createKVTableStatement = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at REAL DEFAULT (unixepoch())
	)`

	getValueStatement = `SELECT value FROM kv_entries WHERE key = ?`

	upsertValueStatement = `
	INSERT INTO kv_entries (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()`

	deleteValueStatement = `DELETE FROM kv_entries WHERE key = ?`
)

// SQLiteStore persists values in a single-table SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
// enableWAL sets journal_mode=WAL; syncPragma is one of OFF, NORMAL, FULL, EXTRA.
func OpenSQLite(ctx context.Context, path string, enableWAL bool, syncPragma string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	params := url.Values{}
	if enableWAL && path != ":memory:" {
		params.Add("_journal_mode", "WAL")
	}
	if syncPragma != "" {
		mode := strings.ToUpper(syncPragma)
		if !validSyncModes[mode] {
			return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", syncPragma)
		}
		params.Add("_synchronous", mode)
	}

	dsn := path
	if len(params) > 0 {
		if strings.Contains(path, "?") {
			dsn += "&" + params.Encode()
		} else {
			dsn += "?" + params.Encode()
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", dsn, err)
	}
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", dsn, err)
	}

	if _, err := db.ExecContext(ctx, createKVTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, getValueStatement, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertValueStatement, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteValueStatement, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
