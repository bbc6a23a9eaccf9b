// Package store provides the backing storage for item classifications.
//
// DESIGN: The cache layer (internal/cache) owns TTL and lookup coalescing;
// a Store only persists entries and enforces the capacity bound with
// least-recently-used eviction. Two implementations:
//   - MemoryStore: default, process-local
//   - SQLiteStore: survives restarts (sqlite.go)
package store

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is one cached item classification.
type Entry struct {
	IsStrm    bool      // Library entry points at a remote stream
	StreamURL string    // Resolved stream address ("" when unknown)
	FetchedAt time.Time // When the upstream lookup happened
}

// Store persists item classifications keyed by item ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for an item ID and marks it recently used.
	Get(itemID string) (Entry, bool)

	// Put stores an entry, evicting the least-recently-used entry when full.
	Put(itemID string, e Entry) error

	// Len returns the number of stored entries.
	Len() int

	// Close releases resources.
	Close() error
}

// MemoryStore is the default in-memory Store.
type MemoryStore struct {
	entries *lru.Cache[string, Entry]
}

// NewMemoryStore creates a memory store bounded to capacity entries.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

// Get returns the entry for an item ID and marks it recently used.
func (s *MemoryStore) Get(itemID string) (Entry, bool) {
	return s.entries.Get(itemID)
}

// Put stores an entry, evicting the least-recently-used entry when full.
func (s *MemoryStore) Put(itemID string, e Entry) error {
	s.entries.Add(itemID, e)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int { return s.entries.Len() }

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
