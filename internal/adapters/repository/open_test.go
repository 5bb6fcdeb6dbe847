package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, Config{Driver: DriverMemory, MemoryCapacity: 2})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer func() { _ = store.Close() }()

		mem, ok := store.(*MemoryStore)
		if !ok {
			t.Fatalf("expected *MemoryStore, got %T", store)
		}
		if mem.capacity != 2 {
			t.Errorf("expected capacity 2, got %d", mem.capacity)
		}
	})

	t.Run("sqlite with schema", func(t *testing.T) {
		store, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "h.db"), InitSchema: true})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.AppendHistory(ctx, Entry{Query: "q", When: "w"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		got, err := store.FetchRecentHistory(ctx, 1)
		if err != nil || len(got) != 1 {
			t.Fatalf("fetch: %v %+v", err, got)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(ctx, Config{Driver: "oracle"}); !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("expected ErrUnknownDriver, got %v", err)
		}
	})
}
