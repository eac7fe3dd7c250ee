package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB is the default backend and the one the tests run against.
type SQLiteDB struct {
	sqlStore
	path string
}

var sqliteDialect = dialect{
	name: "sqlite",
	migrationsTable: `CREATE TABLE IF NOT EXISTS schema_migrations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		filename    TEXT    NOT NULL UNIQUE,
		applied_at  TEXT    NOT NULL
	)`,
	upsertTail: func(conflictCols, updateCols []string) string {
		sets := make([]string, len(updateCols))
		for i, c := range updateCols {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s",
			strings.Join(conflictCols, ", "), strings.Join(sets, ", "))
	},
}

// NewSQLite opens (or creates) the report database at cfg.Path, falling back
// to ~/.ctrlreport/ctrlreport.db.
func NewSQLite(cfg config.DatabaseConfig) (*SQLiteDB, error) {
	path := cfg.Path
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, config.DefaultDBFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One writer; the gateway's cron import and review updates queue here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteDB{sqlStore: newSQLStore(db, sqliteDialect), path: path}
	if err := s.Ping(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", path, err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteDB) Path() string { return s.path }
