package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const pragmas = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;
`

const migrationsTable = `
CREATE TABLE IF NOT EXISTS migrations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    applied_at TEXT NOT NULL
);
`

type migration struct {
	name string
	sql  string
}

// Applied in order, each at most once per database.
var migrations = []migration{
	{
		name: "001_create_sessions",
		sql: `
CREATE TABLE IF NOT EXISTS sessions (
    pk                      INTEGER PRIMARY KEY AUTOINCREMENT,
    id                      TEXT NOT NULL,
    platform                TEXT NOT NULL,
    title                   TEXT,
    cwd                     TEXT NOT NULL DEFAULT '',
    file_path               TEXT NOT NULL UNIQUE,
    file_hash               TEXT NOT NULL,
    created_at              TEXT NOT NULL,
    updated_at              TEXT NOT NULL,
    message_count           INTEGER NOT NULL DEFAULT 0,
    user_message_count      INTEGER NOT NULL DEFAULT 0,
    assistant_message_count INTEGER NOT NULL DEFAULT 0,
    tool_use_count          INTEGER NOT NULL DEFAULT 0,
    indexed_at              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_id ON sessions(id);
CREATE INDEX IF NOT EXISTS idx_sessions_platform ON sessions(platform);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
CREATE INDEX IF NOT EXISTS idx_sessions_cwd ON sessions(cwd);
`,
	},
	{
		name: "002_create_search_history",
		sql: `
CREATE TABLE IF NOT EXISTS search_history (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    query        TEXT NOT NULL,
    scope        TEXT NOT NULL,
    result_count INTEGER NOT NULL DEFAULT 0,
    searched_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_searched_at ON search_history(searched_at);
`,
	},
}

// timeLayout has fixed width so that stored values sort lexically in
// time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var now = time.Now

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DB owns the connection to the embedded SQLite database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending
// migrations. Use MemoryPath for a throwaway database.
func Open(path string) (*DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &DBError{Op: "create db dir", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &DBError{Op: "open", Err: err}
	}
	// one connection keeps writes serialized and an in-memory database whole
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, &DBError{Op: "init", Err: err}
	}

	d := &DB{db: db, path: path}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate() error {
	if _, err := d.db.Exec(migrationsTable); err != nil {
		return &DBError{Op: "create migrations table", Err: err}
	}
	for _, m := range migrations {
		var n int
		if err := d.db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", m.name).Scan(&n); err != nil {
			return &DBError{Op: "check migration " + m.name, Err: err}
		}
		if n > 0 {
			continue
		}
		if err := d.apply(m); err != nil {
			return &DBError{Op: "migration " + m.name, Err: err}
		}
		logger.Debugf("applied migration %s", m.name)
	}
	return nil
}

func (d *DB) apply(m migration) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (name, applied_at) VALUES (?, ?)", m.name, formatTime(now())); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

func (d *DB) Path() string {
	return d.path
}

// Migrations lists applied migration names in order.
func (d *DB) Migrations() ([]string, error) {
	rows, err := d.db.Query("SELECT name FROM migrations ORDER BY id")
	if err != nil {
		return nil, &DBError{Op: "list migrations", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &DBError{Op: "list migrations", Err: err}
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &DBError{Op: "list migrations", Err: err}
	}
	return names, nil
}

type DatabaseStats struct {
	SessionCount       int   `json:"session_count" yaml:"session_count"`
	SearchHistoryCount int   `json:"search_history_count" yaml:"search_history_count"`
	FileSizeBytes      int64 `json:"file_size_bytes" yaml:"file_size_bytes"`
}

// Stats reports row counts and the on-disk size of the database file.
func (d *DB) Stats() (DatabaseStats, error) {
	var st DatabaseStats
	if err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&st.SessionCount); err != nil {
		return st, &DBError{Op: "count sessions", Err: err}
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM search_history").Scan(&st.SearchHistoryCount); err != nil {
		return st, &DBError{Op: "count search history", Err: err}
	}
	if d.path != MemoryPath {
		if info, err := os.Stat(d.path); err == nil {
			st.FileSizeBytes = info.Size()
		}
	}
	return st, nil
}

func (st DatabaseStats) String() string {
	return fmt.Sprintf("sessions=%d searches=%d bytes=%d", st.SessionCount, st.SearchHistoryCount, st.FileSizeBytes)
}
