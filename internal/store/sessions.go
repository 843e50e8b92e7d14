package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
)

const searchScope = "sessions"

const sessionColumns = `id, platform, title, cwd, file_path, file_hash, created_at, updated_at,
	message_count, user_message_count, assistant_message_count, tool_use_count, indexed_at`

const summaryColumns = `id, platform, title, cwd, created_at, updated_at, message_count`

const upsertSession = `
INSERT INTO sessions (` + sessionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_path) DO UPDATE SET
    title = excluded.title,
    file_hash = excluded.file_hash,
    updated_at = excluded.updated_at,
    message_count = excluded.message_count,
    user_message_count = excluded.user_message_count,
    assistant_message_count = excluded.assistant_message_count,
    tool_use_count = excluded.tool_use_count,
    indexed_at = excluded.indexed_at
`

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Platform  parse.Platform
	From      time.Time // created_at >= From
	To        time.Time // created_at <= To
	CwdPrefix string
	Limit     int
	Offset    int
}

// SummaryRow is the lightweight projection returned by List and Search.
type SummaryRow struct {
	ID           string
	Platform     parse.Platform
	Title        string
	Cwd          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

type SessionStats struct {
	Total      int
	ByPlatform map[parse.Platform]int
}

// SearchRecord is one row of the search audit table.
type SearchRecord struct {
	Query       string    `json:"query" yaml:"query"`
	Scope       string    `json:"scope" yaml:"scope"`
	ResultCount int       `json:"result_count" yaml:"result_count"`
	SearchedAt  time.Time `json:"searched_at" yaml:"searched_at"`
}

// Store persists sessions. It holds no state beyond the database handle.
type Store struct {
	db *sql.DB
}

func New(db *DB) *Store {
	return &Store{db: db.Raw()}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// UpsertSessions writes each session keyed on file_path. created_at is kept
// from the first insert. A row that fails is logged and skipped; the
// result is the number of rows applied.
func (s *Store) UpsertSessions(sessions []*parse.Session) int {
	applied := 0
	indexedAt := formatTime(now())
	for _, sess := range sessions {
		_, err := s.db.Exec(upsertSession,
			sess.ID,
			string(sess.Platform),
			nullStr(sess.Title),
			sess.Cwd,
			sess.FilePath,
			sess.FileHash,
			formatTime(sess.CreatedAt),
			formatTime(sess.UpdatedAt),
			sess.MessageCount,
			sess.UserMessageCount,
			sess.AssistantMessageCount,
			sess.ToolUseCount,
			indexedAt,
		)
		if err != nil {
			logger.Warnf("upsert session %s (%s): %v", sess.ID, sess.FilePath, err)
			continue
		}
		applied++
	}
	return applied
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns summaries matching f, most recently updated first.
func (s *Store) List(f Filter) ([]SummaryRow, error) {
	var conditions []string
	var args []interface{}

	if f.Platform != "" {
		conditions = append(conditions, "platform = ?")
		args = append(args, string(f.Platform))
	}
	if !f.From.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, formatTime(f.To))
	}
	if f.CwdPrefix != "" {
		conditions = append(conditions, `cwd LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(f.CwdPrefix)+"%")
	}

	query := "SELECT " + summaryColumns + " FROM sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	return s.querySummaries("list sessions", query, args...)
}

// Search matches query as a substring of title or cwd. Every call, including
// one that fails, is recorded in search_history. limit <= 0 means no cap.
func (s *Store) Search(query string, limit int) ([]SummaryRow, error) {
	sqlQuery := "SELECT " + summaryColumns + ` FROM sessions
		WHERE title LIKE ? ESCAPE '\' OR cwd LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC`
	pattern := "%" + escapeLike(query) + "%"
	args := []interface{}{pattern, pattern}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	results, err := s.querySummaries("search sessions", sqlQuery, args...)

	if _, herr := s.db.Exec(
		"INSERT INTO search_history (query, scope, result_count, searched_at) VALUES (?, ?, ?, ?)",
		query, searchScope, len(results), formatTime(now()),
	); herr != nil {
		logger.Warnf("record search %q: %v", query, herr)
	}

	return results, err
}

func (s *Store) querySummaries(op, query string, args ...interface{}) ([]SummaryRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &DBError{Op: op, Err: err}
	}
	defer rows.Close()

	var results []SummaryRow
	for rows.Next() {
		var (
			r                    SummaryRow
			platform             string
			title                sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&r.ID, &platform, &title, &r.Cwd, &createdAt, &updatedAt, &r.MessageCount); err != nil {
			logger.Debugf("%s: skip row: %v", op, err)
			continue
		}
		if err := decodeSummary(&r, platform, title, createdAt, updatedAt); err != nil {
			logger.Debugf("%s: skip row %s: %v", op, r.ID, err)
			continue
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &DBError{Op: op, Err: err}
	}
	return results, nil
}

func decodeSummary(r *SummaryRow, platform string, title sql.NullString, createdAt, updatedAt string) error {
	p, err := parse.ParsePlatform(platform)
	if err != nil {
		return err
	}
	r.Platform = p
	r.Title = title.String
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	return nil
}

// Get returns the session with the given id, or nil if there is none. When
// several files share an id the most recently updated one wins.
func (s *Store) Get(id string) (*parse.Session, error) {
	return s.getOne("get session",
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? ORDER BY updated_at DESC LIMIT 1", id)
}

// GetByFilePath returns the session backed by path, or nil.
func (s *Store) GetByFilePath(path string) (*parse.Session, error) {
	return s.getOne("get session by path",
		"SELECT "+sessionColumns+" FROM sessions WHERE file_path = ?", path)
}

func (s *Store) getOne(op, query string, arg string) (*parse.Session, error) {
	var (
		sess                            parse.Session
		platform                        string
		title                           sql.NullString
		createdAt, updatedAt, indexedAt string
	)
	err := s.db.QueryRow(query, arg).Scan(
		&sess.ID, &platform, &title, &sess.Cwd, &sess.FilePath, &sess.FileHash,
		&createdAt, &updatedAt,
		&sess.MessageCount, &sess.UserMessageCount, &sess.AssistantMessageCount, &sess.ToolUseCount,
		&indexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &DBError{Op: op, Err: err}
	}

	if sess.Platform, err = parse.ParsePlatform(platform); err != nil {
		return nil, &DBError{Op: op, Err: err}
	}
	sess.Title = title.String
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&sess.CreatedAt, createdAt},
		{&sess.UpdatedAt, updatedAt},
		{&sess.IndexedAt, indexedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, &DBError{Op: op, Err: err}
		}
	}
	return &sess, nil
}

// GetFileHash returns the stored hash for path; found is false when the
// path has never been indexed.
func (s *Store) GetFileHash(path string) (hash string, found bool, err error) {
	err = s.db.QueryRow("SELECT file_hash FROM sessions WHERE file_path = ?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &DBError{Op: "get file hash", Err: err}
	}
	return hash, true, nil
}

// PruneStale deletes rows whose file no longer exists and returns how many
// were removed. Existence is checked outside any transaction, so a file
// recreated between the check and the delete is still pruned.
func (s *Store) PruneStale() (int, error) {
	type entry struct{ id, path string }

	rows, err := s.db.Query("SELECT id, file_path FROM sessions")
	if err != nil {
		return 0, &DBError{Op: "load sessions", Err: err}
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.path); err != nil {
			rows.Close()
			return 0, &DBError{Op: "load sessions", Err: err}
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, &DBError{Op: "load sessions", Err: err}
	}

	removed := 0
	for _, e := range entries {
		if _, err := os.Stat(e.path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		res, err := s.db.Exec("DELETE FROM sessions WHERE file_path = ?", e.path)
		if err != nil {
			return removed, &DBError{Op: "delete session", Err: err}
		}
		n, _ := res.RowsAffected()
		removed += int(n)
		logger.Debugf("pruned session %s (%s)", e.id, e.path)
	}
	return removed, nil
}

// Stats counts sessions in total and per platform.
func (s *Store) Stats() (SessionStats, error) {
	st := SessionStats{ByPlatform: make(map[parse.Platform]int)}
	rows, err := s.db.Query("SELECT platform, COUNT(*) FROM sessions GROUP BY platform")
	if err != nil {
		return st, &DBError{Op: "session stats", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return st, &DBError{Op: "session stats", Err: err}
		}
		st.ByPlatform[parse.Platform(p)] = n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return st, &DBError{Op: "session stats", Err: err}
	}
	return st, nil
}

// ClearAll deletes every session row.
func (s *Store) ClearAll() (int, error) {
	res, err := s.db.Exec("DELETE FROM sessions")
	if err != nil {
		return 0, &DBError{Op: "clear sessions", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &DBError{Op: "clear sessions", Err: err}
	}
	return int(n), nil
}

// RecentSearches returns the latest audit rows, newest first.
func (s *Store) RecentSearches(limit int) ([]SearchRecord, error) {
	rows, err := s.db.Query(
		"SELECT query, scope, result_count, searched_at FROM search_history ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, &DBError{Op: "recent searches", Err: err}
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var at string
		if err := rows.Scan(&r.Query, &r.Scope, &r.ResultCount, &at); err != nil {
			return nil, &DBError{Op: "recent searches", Err: err}
		}
		r.SearchedAt, _ = parseTime(at)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &DBError{Op: "recent searches", Err: err}
	}
	return out, nil
}
