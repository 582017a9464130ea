package db_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/a-h/jarvik/db"
	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) db.Store {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCacheEntry(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Missing keys are not found", func(t *testing.T) {
		_, ok, err := store.CacheEntryGet(ctx, "missing")
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if ok {
			t.Fatal("expected entry not to be found")
		}
	})

	t.Run("Can insert and retrieve new records", func(t *testing.T) {
		entry := db.CacheEntry{Key: "what is rust?", Timestamp: now, Data: `{"context":"a language"}`}
		if _, err := store.CacheEntryPut(ctx, db.CacheEntryPutArgs{Entry: entry, MaxItems: 10}); err != nil {
			t.Fatalf("failed to put entry: %v", err)
		}
		actual, ok, err := store.CacheEntryGet(ctx, entry.Key)
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if !ok {
			t.Fatal("entry not found")
		}
		if diff := cmp.Diff(entry.Data, actual.Data); diff != "" {
			t.Error(diff)
		}
		if !actual.Timestamp.Equal(now) {
			t.Errorf("expected timestamp %v, got %v", now, actual.Timestamp)
		}
	})

	t.Run("Can upsert over an existing record", func(t *testing.T) {
		updated := db.CacheEntry{Key: "what is rust?", Timestamp: now.Add(time.Hour), Data: `{"context":"a fungus"}`}
		if _, err := store.CacheEntryPut(ctx, db.CacheEntryPutArgs{Entry: updated, MaxItems: 10}); err != nil {
			t.Fatalf("failed to upsert entry: %v", err)
		}
		actual, _, err := store.CacheEntryGet(ctx, updated.Key)
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if actual.Data != updated.Data {
			t.Errorf("expected %q, got %q", updated.Data, actual.Data)
		}
		n, err := store.CacheEntryCount(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 entry, got %d", n)
		}
	})
}

func TestCacheEntryPrune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Put removes the oldest entries beyond the maximum", func(t *testing.T) {
		store := openTestStore(t)
		for i, key := range []string{"a", "b", "c"} {
			entry := db.CacheEntry{Key: key, Timestamp: now.Add(time.Duration(i) * time.Second), Data: "{}"}
			if _, err := store.CacheEntryPut(ctx, db.CacheEntryPutArgs{Entry: entry, MaxItems: 2}); err != nil {
				t.Fatalf("failed to put %q: %v", key, err)
			}
		}
		assertKeys(t, store, map[string]bool{"a": false, "b": true, "c": true})
	})

	t.Run("Equal timestamps are evicted in key order", func(t *testing.T) {
		store := openTestStore(t)
		for _, key := range []string{"z", "y", "x", "w"} {
			entry := db.CacheEntry{Key: key, Timestamp: now, Data: "{}"}
			if _, err := store.CacheEntryPut(ctx, db.CacheEntryPutArgs{Entry: entry}); err != nil {
				t.Fatalf("failed to put %q: %v", key, err)
			}
		}
		pruned, err := store.CacheEntryPrune(ctx, 2)
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if pruned != 2 {
			t.Errorf("expected 2 entries pruned, got %d", pruned)
		}
		assertKeys(t, store, map[string]bool{"w": false, "x": false, "y": true, "z": true})
	})

	t.Run("Prune below the maximum is a no-op", func(t *testing.T) {
		store := openTestStore(t)
		for i := 0; i < 3; i++ {
			entry := db.CacheEntry{Key: fmt.Sprintf("q%d", i), Timestamp: now, Data: "{}"}
			if _, err := store.CacheEntryPut(ctx, db.CacheEntryPutArgs{Entry: entry}); err != nil {
				t.Fatalf("failed to put: %v", err)
			}
		}
		pruned, err := store.CacheEntryPrune(ctx, 10)
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if pruned != 0 {
			t.Errorf("expected nothing pruned, got %d", pruned)
		}
	})

	t.Run("Negative maximum is rejected", func(t *testing.T) {
		store := openTestStore(t)
		if _, err := store.CacheEntryPrune(ctx, -1); err == nil {
			t.Error("expected error")
		}
	})
}

func assertKeys(t *testing.T, store db.Store, expected map[string]bool) {
	t.Helper()
	for key, present := range expected {
		_, ok, err := store.CacheEntryGet(context.Background(), key)
		if err != nil {
			t.Fatalf("failed to get %q: %v", key, err)
		}
		if ok != present {
			t.Errorf("key %q: expected present=%v, got %v", key, present, ok)
		}
	}
}
