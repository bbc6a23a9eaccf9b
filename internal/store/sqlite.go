// SQLite-backed Store for deployments that want classifications to
// survive restarts. Same contract as MemoryStore: recency is tracked per
// read so capacity eviction stays least-recently-used.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS item_types (
	item_id     TEXT PRIMARY KEY,
	is_strm     INTEGER NOT NULL,
	stream_url  TEXT NOT NULL DEFAULT '',
	fetched_at  INTEGER NOT NULL,
	last_access INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_item_types_last_access ON item_types(last_access);
`

// SQLiteStore persists item classifications in a local SQLite file.
type SQLiteStore struct {
	db       *sql.DB
	capacity int
	mu       sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, capacity int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store '%s': %w", path, err)
	}

	// Single writer keeps eviction bookkeeping simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, capacity: capacity}, nil
}

// Get returns the entry for an item ID and marks it recently used.
func (s *SQLiteStore) Get(itemID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		isStrm    int
		streamURL string
		fetchedAt int64
	)
	row := s.db.QueryRow(
		`SELECT is_strm, stream_url, fetched_at FROM item_types WHERE item_id = ?`, itemID)
	if err := row.Scan(&isStrm, &streamURL, &fetchedAt); err != nil {
		return Entry{}, false
	}

	// Recency bookkeeping is best effort.
	_, _ = s.db.Exec(
		`UPDATE item_types SET last_access = ? WHERE item_id = ?`,
		time.Now().UnixNano(), itemID)

	return Entry{
		IsStrm:    isStrm != 0,
		StreamURL: streamURL,
		FetchedAt: time.Unix(0, fetchedAt),
	}, true
}

// Put stores an entry, evicting the least-recently-used rows when full.
func (s *SQLiteStore) Put(itemID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	isStrm := 0
	if e.IsStrm {
		isStrm = 1
	}

	now := time.Now().UnixNano()
	_, err := s.db.Exec(
		`INSERT INTO item_types (item_id, is_strm, stream_url, fetched_at, last_access)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
			is_strm = excluded.is_strm,
			stream_url = excluded.stream_url,
			fetched_at = excluded.fetched_at,
			last_access = excluded.last_access`,
		itemID, isStrm, e.StreamURL, e.FetchedAt.UnixNano(), now)
	if err != nil {
		return fmt.Errorf("failed to store entry for item %s: %w", itemID, err)
	}

	return s.evictLocked()
}

// evictLocked removes the least-recently-used rows above capacity.
func (s *SQLiteStore) evictLocked() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM item_types`).Scan(&count); err != nil {
		return err
	}
	if count <= s.capacity {
		return nil
	}

	_, err := s.db.Exec(
		`DELETE FROM item_types WHERE item_id IN (
			SELECT item_id FROM item_types ORDER BY last_access ASC LIMIT ?
		)`, count-s.capacity)
	return err
}

// Len returns the number of stored entries.
func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM item_types`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
