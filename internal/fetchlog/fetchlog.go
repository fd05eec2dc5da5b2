package fetchlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	_ "modernc.org/sqlite"
)

// Entry records the outcome of one feed load.
type Entry struct {
	ID         int64     `json:"id"`
	User       string    `json:"user"`
	URL        string    `json:"url"`
	RequestID  uint64    `json:"request_id"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Indexed    int       `json:"indexed"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"duration_ms"`
	Error      *string   `json:"error"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Status values stored with each entry.
const (
	StatusOK    = "success"
	StatusError = "error"
	StatusStale = "stale"
)

// Log is a SQLite-backed history of feed fetches.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the fetch log database at dir/fetchlog.db.
func Open(dir string) (*Log, error) {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding fetch log dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating fetch log dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "fetchlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening fetch log: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS feed_fetches (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		login       TEXT NOT NULL,
		url         TEXT NOT NULL,
		request_id  INTEGER NOT NULL,
		status      TEXT NOT NULL,
		row_count   INTEGER NOT NULL DEFAULT 0,
		indexed_rows INTEGER NOT NULL DEFAULT 0,
		skipped_rows INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error       TEXT,
		fetched_at  TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating fetch log table: %w", err)
	}

	return &Log{db: db}, nil
}

// Record inserts an entry and returns its ID.
func (l *Log) Record(ctx context.Context, e Entry) (int64, error) {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO feed_fetches (login, url, request_id, status, row_count, indexed_rows, skipped_rows, duration_ms, error, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.User, e.URL, int64(e.RequestID), e.Status, e.Rows, e.Indexed, e.Skipped, e.DurationMs, e.Error, e.FetchedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting fetch log: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the latest entries for a user, newest first.
func (l *Log) Recent(ctx context.Context, user string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, login, url, request_id, status, row_count, indexed_rows, skipped_rows, duration_ms, error, fetched_at
		 FROM feed_fetches
		 WHERE login = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		user, limit)
	if err != nil {
		return nil, fmt.Errorf("querying fetch log: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var reqID int64
		if err := rows.Scan(&e.ID, &e.User, &e.URL, &reqID, &e.Status, &e.Rows, &e.Indexed,
			&e.Skipped, &e.DurationMs, &e.Error, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning fetch log: %w", err)
		}
		e.RequestID = uint64(reqID)
		result = append(result, e)
	}
	return result, rows.Err()
}

// Close closes the fetch log database.
func (l *Log) Close() error {
	return l.db.Close()
}
