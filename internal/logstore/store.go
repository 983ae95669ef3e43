// Package logstore persists the append-only signal log.
package logstore

import (
	"context"
	"sync"
	"time"

	"github.com/ianF57/robot/pkg/types"
)

// DefaultLatestLimit is the number of entries returned when no limit is given
const DefaultLatestLimit = 15

// Store is an append-only signal log
type Store interface {
	// Append stores the entry and returns it with ID and CreatedAt assigned
	Append(ctx context.Context, entry types.SignalLogEntry) (types.SignalLogEntry, error)
	// Latest returns up to limit entries, newest first
	Latest(ctx context.Context, limit int) ([]types.SignalLogEntry, error)
}

// MemoryStore keeps the log in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.SignalLogEntry
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory log
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make([]types.SignalLogEntry, 0),
		nextID:  1,
		now:     time.Now,
	}
}

// Append assigns the next ID and a UTC creation time
func (s *MemoryStore) Append(ctx context.Context, entry types.SignalLogEntry) (types.SignalLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return types.SignalLogEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	entry.CreatedAt = s.now().UTC()
	s.nextID++
	s.entries = append(s.entries, entry)
	return entry, nil
}

// Latest returns up to limit entries ordered by descending ID
func (s *MemoryStore) Latest(ctx context.Context, limit int) ([]types.SignalLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLatestLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > n {
		limit = n
	}
	out := make([]types.SignalLogEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
