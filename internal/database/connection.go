package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Connect
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database and makes sure the schema exists.
// For sqlite the dsn is a file path or ":memory:".
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == DriverSQLite && dsn != ":memory:" {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers, and every
		// connection to ":memory:" would see its own database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	// Create vocabulary table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vocabulary (
			word_key TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			word TEXT NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			pronunciation_ref TEXT NOT NULL DEFAULT '',
			phonetic TEXT NOT NULL DEFAULT '',
			part_of_speech TEXT NOT NULL DEFAULT '',
			contexts TEXT NOT NULL DEFAULT '[]',
			mastery_level INTEGER NOT NULL DEFAULT 0,
			times_correct INTEGER NOT NULL DEFAULT 0,
			times_incorrect INTEGER NOT NULL DEFAULT 0,
			last_reviewed TIMESTAMP NULL,
			next_review TIMESTAMP NULL,
			is_saved BOOLEAN NOT NULL DEFAULT false,
			is_new BOOLEAN NOT NULL DEFAULT true
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary table: %w", err)
	}

	// Create saved_words table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_words (
			word_key TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create saved_words table: %w", err)
	}

	// Create progress table, a single JSON document
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS progress (
			id INTEGER PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create progress table: %w", err)
	}

	return nil
}
