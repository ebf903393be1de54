package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nkhandelwal/khata/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/khata.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.khata.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "khata.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1).
	// Amounts are stored as decimal TEXT to avoid float drift.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS obligations (
		  id                 TEXT PRIMARY KEY,
		  person             TEXT NOT NULL,
		  type               TEXT NOT NULL,
		  total_amount       TEXT NOT NULL,
		  remaining_amount   TEXT NOT NULL,
		  expected_per_cycle TEXT,
		  note               TEXT,
		  due_date           TEXT,
		  status             TEXT NOT NULL,
		  version            INTEGER NOT NULL DEFAULT 1,
		  created_at         INTEGER NOT NULL,
		  updated_at         INTEGER NOT NULL,
		  deleted_at         INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_obligations_person_status
		ON obligations(person, status)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_obligations_updated
		ON obligations(updated_at DESC)
		WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS entries (
		  id              TEXT PRIMARY KEY,
		  obligation_id   TEXT NOT NULL REFERENCES obligations(id),
		  kind            TEXT NOT NULL,
		  amount          TEXT,
		  remaining_after TEXT,
		  field           TEXT,
		  old_value       TEXT,
		  new_value       TEXT,
		  reason          TEXT,
		  ref             TEXT,
		  cycle_variance  TEXT,
		  created_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entries_obligation
		ON entries(obligation_id, created_at);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_ref
		ON entries(obligation_id, ref)
		WHERE ref IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
