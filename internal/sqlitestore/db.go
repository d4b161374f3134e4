// Package sqlitestore provides SQLite-backed implementations of the
// snapshot and changelog stores, for deployments that prefer one database
// file over a directory tree.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/adstate-project/adstate/pkg/errclass"
)

// DB holds the database connection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the adstate database and runs migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return wrapped, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			account_id TEXT NOT NULL,
			campaign_id TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			captured_at TEXT NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (account_id, campaign_id)
		)`,
		`CREATE TABLE IF NOT EXISTS changelog_entries (
			account_id TEXT NOT NULL,
			campaign_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			detected_at TEXT NOT NULL,
			source TEXT NOT NULL,
			category TEXT NOT NULL,
			entity TEXT NOT NULL DEFAULT '{}',
			old_value TEXT NOT NULL DEFAULT '',
			new_value TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			batch_hash TEXT NOT NULL,
			PRIMARY KEY (account_id, campaign_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changelog_campaign
			ON changelog_entries(account_id, campaign_id)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// mapBusy converts SQLITE_BUSY/LOCKED into the typed write-conflict error
// so the caller's bounded retry policy applies.
func mapBusy(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return errclass.ErrWriteConflict.WithMessage("database locked by another writer")
	}
	return err
}
