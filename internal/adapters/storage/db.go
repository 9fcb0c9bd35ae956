package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned (wrapped) by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// migrations are applied in order; index i brings the schema to version i+1.
var migrations = []string{
	// 1: members, instruments, schedules
	`
	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'User',
		instrument TEXT NOT NULL DEFAULT '',
		part TEXT NOT NULL DEFAULT '',
		remarks TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS instrument (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		english TEXT NOT NULL DEFAULT '',
		abbreviation TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS schedule (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL UNIQUE,
		member_name TEXT NOT NULL DEFAULT '',
		available_days TEXT NOT NULL DEFAULT '[]',
		available_dates TEXT NOT NULL DEFAULT '[]',
		date_notes TEXT NOT NULL DEFAULT '{}',
		week_start_date TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);
	`,
	// 2: lookup indexes for roster filtering
	`
	CREATE INDEX IF NOT EXISTS idx_member_instrument ON member(instrument);
	CREATE INDEX IF NOT EXISTS idx_member_role ON member(role);
	`,
	// 3: roster import matches on email
	`
	CREATE INDEX IF NOT EXISTS idx_member_email ON member(lower(email));
	`,
	// 4: members are archived, never deleted
	`
	ALTER TABLE member ADD COLUMN archived_at TEXT NOT NULL DEFAULT '';
	`,
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid database connection
// POST: every pending migration applied in its own transaction; schema_version updated
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for v := current; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: reset version: %w", v+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", v+1, err)
		}
		zap.L().Info("schema_migrated", zap.Int("version", v+1))
	}
	return nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
// PRE: schema_version table exists
// POST: returns version >= 0
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}
