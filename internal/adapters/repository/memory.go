package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps history in process memory. Once capacity is reached the
// oldest entry is dropped for every new one.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: DefaultMemoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendHistory implements Store.
func (s *MemoryStore) AppendHistory(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: append history: %w", ErrStore, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.capacity {
		// Shift instead of reslicing so the backing array does not grow forever.
		n := copy(s.entries, s.entries[len(s.entries)-s.capacity+1:])
		s.entries = s.entries[:n]
	}
	s.entries = append(s.entries, entry)
	return nil
}

// FetchRecentHistory implements Store.
func (s *MemoryStore) FetchRecentHistory(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: fetch history: %w", ErrStore, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.entries))
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Len returns the number of retained entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
