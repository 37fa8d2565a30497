package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the local lead store used when LEAD_STORE=sqlite.
// ":memory:" opens a private in-memory database limited to one connection,
// since every pooled connection would otherwise see its own empty database.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := MigrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL,
		company           TEXT NOT NULL DEFAULT '',
		property_type     TEXT NOT NULL DEFAULT '',
		property_cost     REAL NOT NULL DEFAULT 0,
		annual_payroll    REAL NOT NULL DEFAULT 0,
		lead_source       TEXT NOT NULL,
		status            TEXT NOT NULL,
		pipeline_stage    TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '[]',
		notes             TEXT NOT NULL DEFAULT '',
		estimate_kind     TEXT NOT NULL DEFAULT '',
		estimated_savings REAL NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_status ON contacts(status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_stage ON contacts(pipeline_stage, created_at DESC)`,
}

// MigrateSQLite applies the schema. Every statement is idempotent.
func MigrateSQLite(db *sql.DB) error {
	for i, stmt := range sqliteMigrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
