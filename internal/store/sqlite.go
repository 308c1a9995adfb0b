package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// sqliteSchema mirrors db/migrations for the embedded provider.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		year  INTEGER NOT NULL,
		title TEXT    NOT NULL CHECK (title <> '')
	)`,
	`CREATE INDEX IF NOT EXISTS movies_title_idx ON movies (title)`,
	`CREATE TABLE IF NOT EXISTS movie_actors (
		movie_id INTEGER NOT NULL REFERENCES movies (id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name     TEXT    NOT NULL,
		PRIMARY KEY (movie_id, position)
	)`,
}

// SQLite is a file-backed store for single-node deployments and tests.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// OpenSQLite opens (creating if needed) the database file at path and ensures
// the catalog tables exist.
func OpenSQLite(ctx context.Context, path string, logger *log.Logger) (*SQLite, error) {
	if logger == nil {
		logger = log.Default()
	}
	if path == "" {
		path = "movies.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	dsn := "file:" + path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	if err := verifyTables(ctx, sqliteTableExists(db)); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Printf("store: sqlite database ready at %s", path)
	return &SQLite{db: db, path: path, logger: logger}, nil
}

func sqliteTableExists(db *sql.DB) tableProbe {
	return func(ctx context.Context, table string) (bool, error) {
		var n int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		return n > 0, err
	}
}

// Driver names the provider.
func (s *SQLite) Driver() string {
	return DriverSQLite
}

// Close releases the database handle.
func (s *SQLite) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.logger.Println("store: closing sqlite database")
	_ = s.db.Close()
}

// HealthCheck verifies the database file is usable.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for repositories.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}
