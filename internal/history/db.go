// Package history stores question/answer exchanges in a local SQLite
// database. Only the most recent entries are kept.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/detax-ai/detax/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultLimit is how many entries are kept when Config.Limit is zero.
const DefaultLimit = 100

// Config locates the store.
type Config struct {
	// Path of the database file. ":memory:" opens a private in-memory
	// database.
	Path string
	// Limit is the number of entries kept.
	Limit int
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("history: path is required")
	}
	if c.Limit < 0 {
		return fmt.Errorf("history: limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// Open opens (creating if needed) the database and applies migrations.
func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := cfg.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	memory := cfg.Path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if memory {
		// Every pooled connection would otherwise see its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug(log.CatHistory, "History store opened", "path", cfg.Path, "limit", limit)
	return &Store{db: db, limit: limit}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)"
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load history migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare history migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare history migrations: %w", err)
	}
	// m.Close would close db as well, so only the source is released.
	defer func() { _ = src.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate history database: %w", err)
	}
	return nil
}
