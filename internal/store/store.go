package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding catalog snapshots and the
// local question bank.
type Store struct {
	db *sql.DB
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshots returns the snapshot repository backed by this store.
func (s *Store) Snapshots() *SnapshotRepo {
	return &SnapshotRepo{db: s.db}
}

// Bank returns the local question bank backed by this store.
func (s *Store) Bank() *LocalBank {
	return &LocalBank{db: s.db}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_subjects (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			grade    TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_chapters (
			id             TEXT NOT NULL,
			subject_id     TEXT NOT NULL REFERENCES snapshot_subjects(id) ON DELETE CASCADE,
			name           TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			position       INTEGER NOT NULL,
			PRIMARY KEY (subject_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS bank_questions (
			subject  INTEGER NOT NULL,
			chapter  INTEGER NOT NULL,
			local_id INTEGER NOT NULL,
			text     TEXT NOT NULL,
			options  TEXT NOT NULL,
			correct  TEXT NOT NULL,
			PRIMARY KEY (subject, chapter, local_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. EXAMENGINE_DB environment variable
// 2. $XDG_DATA_HOME/examengine/examengine.db
// 3. ~/.local/share/examengine/examengine.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("EXAMENGINE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "examengine", "examengine.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
