// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// The pattern throughout this package is plain database/sql:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs parameterized queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver's init() registers itself with
	// database/sql under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. It owns the schema (migrate) and the
// pool lifecycle; the per-record stores hang off it via Tasks() and Users().
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/tasklist.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (used by the tests in this package)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// matters for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; tasks reference users,
	// so we want referential integrity enforced.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Callers should defer this
// right after New() succeeds.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Tasks returns the task store backed by this connection pool.
func (db *DB) Tasks() *TaskStore {
	return &TaskStore{conn: db.conn}
}

// Users returns the user store backed by this connection pool.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start; for anything fancier you'd reach for golang-migrate.
//
// The tasks table carries three single-column indexes: completed and
// created_at support the filter and the newest-first ordering, user_id
// supports the ownership scoping applied to every query.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			login         TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			completed  INTEGER NOT NULL DEFAULT 0,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
		CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}
