package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width RFC3339 with nanoseconds so that stored UTC
// timestamps compare lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const schema = `
CREATE TABLE IF NOT EXISTS raw_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	summary TEXT NOT NULL,
	source TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	UNIQUE(source, url)
);

CREATE TABLE IF NOT EXISTS insights (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	raw_item_id INTEGER NOT NULL,
	data TEXT NOT NULL,
	analyzed_at TEXT NOT NULL,
	FOREIGN KEY (raw_item_id) REFERENCES raw_items(id)
);
`

// Store owns the single SQLite database file backing both the raw-item and
// insight stores. The schema is initialized idempotently, so constructing a
// Store repeatedly against the same path is safe. One pipeline run per
// store at a time is assumed; there is no multi-writer protocol.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database file at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RawItems returns the raw-item store backed by this database.
func (s *Store) RawItems() *RawItemStore {
	return &RawItemStore{store: s}
}

// Insights returns the insight store backed by this database.
func (s *Store) Insights() *InsightStore {
	return &InsightStore{store: s}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
