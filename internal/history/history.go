// Package history persists past queries in a local SQLite database so the
// TUI and the history command can recall them.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kbsearch/internal/api"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	query         TEXT NOT NULL,
	use_rerank    INTEGER NOT NULL,
	use_llm       INTEGER NOT NULL,
	n_results     INTEGER NOT NULL,
	total_results INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at);
`

// Entry is one recorded query.
type Entry struct {
	ID           int64
	Query        string
	UseRerank    bool
	UseLLM       bool
	NResults     int
	TotalResults int
	CreatedAt    time.Time
}

// Store is the SQLite-backed query history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Add records one completed query.
func (s *Store) Add(req api.QueryRequest, totalResults int) error {
	_, err := s.db.Exec(
		"INSERT INTO queries (query, use_rerank, use_llm, n_results, total_results) VALUES (?, ?, ?, ?, ?)",
		req.Query, req.UseRerank, req.UseLLM, req.NResults, totalResults,
	)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT id, query, use_rerank, use_llm, n_results, total_results, created_at FROM queries ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Query, &e.UseRerank, &e.UseLLM, &e.NResults, &e.TotalResults, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
