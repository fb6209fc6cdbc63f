package database

import (
	"database/sql"
	"fmt"
	"time"

	"jordanella.com/scrollshot/internal/logging"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx, Dialect) error
	Down        func(*sql.Tx, Dialect) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create capture_sessions table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create session_errors table",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// LatestVersion is the schema version after all migrations
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	logger := logging.NewLogger("Database")

	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	logger.DebugWithContext("Checking schema", map[string]interface{}{
		"version": currentVersion,
		"dialect": string(db.dialect),
	})

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx, db.dialect); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			// Record migration
			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}

		logger.InfoWithContext("Migration applied", map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})
	}

	return nil
}

// RollbackTo undoes migrations above version, newest first
func (db *DB) RollbackTo(version int) error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version <= version || migration.Version > currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Down(tx, db.dialect); err != nil {
				return fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
			}
			if migration.Version == 1 {
				return nil
			}
			_, err := tx.Exec(`DELETE FROM schema_version WHERE version = ?`, migration.Version)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	var err error

	switch db.dialect {
	case DialectMySQL:
		err = db.conn.QueryRow(`
			SELECT COUNT(*) > 0
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = 'schema_version'
		`).Scan(&tableExists)
	default:
		err = db.conn.QueryRow(`
			SELECT COUNT(*) > 0
			FROM sqlite_master
			WHERE type='table' AND name='schema_version'
		`).Scan(&tableExists)
	}
	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	return db.GetVersion()
}

// execAll runs statements one by one; MySQL rejects multi-statement Exec
func execAll(tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// idColumn returns an auto-incrementing primary key definition
func idColumn(d Dialect) string {
	if d == DialectMySQL {
		return "id BIGINT PRIMARY KEY AUTO_INCREMENT"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx, d Dialect) error {
	return execAll(tx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS schema_version (
			%s,
			version INTEGER NOT NULL UNIQUE,
			description VARCHAR(255) NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`, idColumn(d)))
}

func migration001Down(tx *sql.Tx, d Dialect) error {
	return execAll(tx, `DROP TABLE IF EXISTS schema_version`)
}

// Migration 002: One row per capture session
func migration002Up(tx *sql.Tx, d Dialect) error {
	return execAll(tx, `
		CREATE TABLE capture_sessions (
			id VARCHAR(36) PRIMARY KEY,
			region VARCHAR(64) NOT NULL,
			state VARCHAR(16) NOT NULL,

			-- Result
			frames INTEGER DEFAULT 0,
			width INTEGER DEFAULT 0,
			height INTEGER DEFAULT 0,
			best_match_count INTEGER DEFAULT 0,
			best_ignore_bottom INTEGER DEFAULT 0,
			degraded BOOLEAN DEFAULT 0,
			output_path VARCHAR(1024),
			error_message TEXT,

			-- Timestamps
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			duration_ms INTEGER
		)`,
		`CREATE INDEX idx_capture_sessions_started ON capture_sessions(started_at)`,
		`CREATE INDEX idx_capture_sessions_state ON capture_sessions(state)`,
	)
}

func migration002Down(tx *sql.Tx, d Dialect) error {
	return execAll(tx, `DROP TABLE IF EXISTS capture_sessions`)
}

// Migration 003: Errors raised during a session
func migration003Up(tx *sql.Tx, d Dialect) error {
	return execAll(tx, fmt.Sprintf(`
		CREATE TABLE session_errors (
			%s,
			session_id VARCHAR(36) NOT NULL,
			category VARCHAR(32) NOT NULL,
			error_message TEXT NOT NULL,
			frame INTEGER DEFAULT 0,
			occurred_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES capture_sessions(id) ON DELETE CASCADE
		)`, idColumn(d)),
		`CREATE INDEX idx_session_errors_session ON session_errors(session_id)`,
	)
}

func migration003Down(tx *sql.Tx, d Dialect) error {
	return execAll(tx, `DROP TABLE IF EXISTS session_errors`)
}
