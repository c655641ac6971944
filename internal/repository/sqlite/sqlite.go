// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB     : a connection pool (NOT a single connection!)
//   - sql.Row    : a single result row
//   - sql.Rows   : multiple result rows (must be closed!)
//
// CONNECTION PRAGMAS:
// PRAGMA statements only affect the connection they run on, and sql.DB hands
// out many connections. We therefore put them in the DSN (`_pragma=...`),
// which modernc applies to every connection it opens:
//   - foreign_keys(1) : enforce REFERENCES ... ON DELETE CASCADE
//   - busy_timeout(…) : wait for a competing writer instead of failing with SQLITE_BUSY
//   - journal_mode(WAL): readers don't block the writer (file databases only)
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/tagged-snippets/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeoutMillis bounds how long a writer waits for the database lock.
const busyTimeoutMillis = 5000

// memoryPath is SQLite's name for a private in-memory database.
const memoryPath = ":memory:"

// compile-time check that *DB satisfies the Store contract
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the per-entity repositories.
type DB struct {
	conn *sql.DB

	snippets *SnippetDB
	tags     *TagDB
	users    *UserDB
}

// New opens a SQLite database. It does NOT create tables; call Migrate.
//
// dbPath examples:
//   - "data/snippets.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// Every connection to ":memory:" would get its own empty database, so an
// in-memory pool is pinned to a single connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open() does not connect; Ping surfaces a bad path right away.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	return &DB{
		conn:     conn,
		snippets: &SnippetDB{conn: conn},
		tags:     &TagDB{conn: conn},
		users:    &UserDB{conn: conn},
	}, nil
}

func dsn(dbPath string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis),
	}
	if dbPath != memoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return dbPath + "?" + strings.Join(pragmas, "&")
}

// Snippets, Tags and Users return the per-entity repositories.
func (db *DB) Snippets() repository.SnippetRepository { return db.snippets }
func (db *DB) Tags() repository.TagRepository         { return db.tags }
func (db *DB) Users() repository.UserRepository       { return db.users }

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate applies every pending migration embedded under migrations/.
//
// goose records applied versions in its own goose_db_version table, so
// calling Migrate on an up-to-date database is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: opening embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("sqlite: creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. modernc enables extended result codes, so the specific code
// is normally available; the message check covers the primary code alone.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// placeholders returns "?, ?, ?" with n markers, for IN (...) lists.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
