// Package repository persists the query history behind a small Store
// interface with in-memory and SQL implementations.
package repository

import (
	"context"

	"github.com/okian/medtracker/internal/domain/model"
)

// Entry is a history row.
type Entry = model.HistoryEntry

// Store provides append-only access to the query history.
type Store interface {
	// AppendHistory persists one entry.
	AppendHistory(ctx context.Context, entry Entry) error

	// FetchRecentHistory returns up to limit entries, newest first.
	// Returns ErrInvalidLimit if limit < 1.
	FetchRecentHistory(ctx context.Context, limit int) ([]Entry, error)

	// Close releases connections held by the store.
	Close() error
}
