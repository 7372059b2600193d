package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	// Postgres driver, selected by a postgres:// DSN.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store holds the database handle and hands out repositories.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn and migrates the schema. DSNs starting with
// postgres:// or postgresql:// use lib/pq; anything else is a SQLite path
// or URI.
func Open(dsn string) (*Store, error) {
	driver := "sqlite"
	if isPostgres(dsn) {
		driver = "postgres"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; one connection also keeps the
		// pragmas below in force for every statement.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sessions returns the training session repository.
func (s *Store) Sessions() SessionRepo {
	return &sessionRepo{db: s.db}
}

// EventRepo returns the LLM request event repository.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

// Users returns the local identity repository.
func (s *Store) Users() UserRepo {
	return &userRepo{db: s.db}
}

// Reports returns the question report repository.
func (s *Store) Reports() ReportRepo {
	return &reportRepo{db: s.db}
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func applyPragmas(db *sqlx.DB) error {
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

// DefaultDBPath resolves the database file path in priority order:
// 1. TENSE_DB environment variable
// 2. $XDG_DATA_HOME/tensetrainer/tensetrainer.db
// 3. ~/.local/share/tensetrainer/tensetrainer.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("TENSE_DB"); p != "" {
		if isPostgres(p) {
			return p, nil
		}
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

	p := filepath.Join(dataHome, "tensetrainer", "tensetrainer.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path. Postgres DSNs
// are left alone.
func EnsureDir(path string) error {
	if isPostgres(path) {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
