// Package sqlite stores premium entitlements: subscriptions and per-period
// usage quotas.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Quota reservations are single-statement upserts; one connection
	// serializes them without relying on SQLITE_BUSY retries.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range db.pragmas() {
		if _, err := conn.Exec("PRAGMA " + pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}

	db.db = conn
	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// pragmas returns the connection settings. WAL is skipped for in-memory
// databases, which do not support it.
func (db *DB) pragmas() []string {
	p := []string{"busy_timeout = 5000", "foreign_keys = ON"}
	if db.path != ":memory:" {
		p = append(p, "journal_mode = WAL", "synchronous = NORMAL")
	}
	return p
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Ping verifies the connection is still usable.
func (db *DB) Ping(ctx context.Context) error {
	if db.db == nil {
		return fmt.Errorf("database is not open")
	}
	return db.db.PingContext(ctx)
}

// createSchema creates the database tables if they don't exist.
// Quota rows are keyed by period so that a new month starts from zero
// without any reset job.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			plan TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			current_period_end TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS premium_quotas (
			user_id TEXT NOT NULL,
			feature TEXT NOT NULL,
			period_start TEXT NOT NULL,
			used INTEGER NOT NULL DEFAULT 0 CHECK (used >= 0),
			quota_limit INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, feature, period_start)
		);

		CREATE INDEX IF NOT EXISTS idx_premium_quotas_period_start ON premium_quotas(period_start);
	`

	_, err := db.db.Exec(schema)
	return err
}
