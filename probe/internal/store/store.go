// Package store keeps the history of probe reports and breakpoint changes
// in SQLite. A Store is also a sink, so it can sit in the fan-out router
// next to stdout and webhooks.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/viewport/probe/report"
)

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("store: not found")

// Schema creates the history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_reports (
	id          TEXT PRIMARY KEY,
	page_url    TEXT NOT NULL,
	page_id     TEXT NOT NULL DEFAULT '',
	set_name    TEXT NOT NULL,
	body        TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_probe_reports_url ON probe_reports(page_url, created_at);

CREATE TABLE IF NOT EXISTS breakpoint_changes (
	id          TEXT PRIMARY KEY,
	page_url    TEXT NOT NULL,
	page_id     TEXT NOT NULL DEFAULT '',
	previous    TEXT NOT NULL,
	current     TEXT NOT NULL,
	width       INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_breakpoint_changes_url ON breakpoint_changes(page_url, created_at);
`

// Store is the SQLite-backed history.
type Store struct {
	db *sql.DB

	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.db.Close() })
	return s.closeErr
}

// SendReport stores rep. It implements sink.Sink.
func (s *Store) SendReport(ctx context.Context, rep report.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("store: marshal report: %w", err)
	}
	return s.exec(ctx, `
		INSERT OR REPLACE INTO probe_reports (id, page_url, page_id, set_name, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.PageURL, rep.PageID, rep.Set, string(body), rep.Timestamp)
}

// SendChange stores ch. It implements sink.Sink.
func (s *Store) SendChange(ctx context.Context, ch report.Change) error {
	return s.exec(ctx, `
		INSERT OR REPLACE INTO breakpoint_changes (id, page_url, page_id, previous, current, width, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.PageURL, ch.PageID, ch.Previous, ch.Current, ch.Width, ch.Timestamp)
}

// Get returns the report with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM probe_reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get report: %w", err)
	}
	return report.UnmarshalReport([]byte(body))
}

// List returns the most recent reports, newest first. An empty pageURL
// lists all pages.
func (s *Store) List(ctx context.Context, pageURL string, limit int) ([]report.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM probe_reports
		WHERE (? = '' OR page_url = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, pageURL, pageURL, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("store: scan report: %w", err)
		}
		rep, err := report.UnmarshalReport([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("store: decode report: %w", err)
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

// Changes returns the most recent breakpoint changes, newest first.
func (s *Store) Changes(ctx context.Context, pageURL string, limit int) ([]report.Change, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_url, page_id, previous, current, width, created_at
		FROM breakpoint_changes
		WHERE (? = '' OR page_url = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, pageURL, pageURL, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list changes: %w", err)
	}
	defer rows.Close()

	var out []report.Change
	for rows.Next() {
		var c report.Change
		if err := rows.Scan(&c.ID, &c.PageURL, &c.PageID, &c.Previous, &c.Current, &c.Width, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("store: scan change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// exec runs a write, retrying while SQLite reports the database busy.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	const maxRetries = 3
	var err error
	for i := range maxRetries {
		_, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !isBusy(err) {
			break
		}
		select {
		case <-time.After(time.Duration(100*(i+1)) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
