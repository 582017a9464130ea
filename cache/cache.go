// Package cache keeps the last context payload fetched for each query, so that a context service
// outage can be bridged with a previous answer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/a-h/jarvik/db"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultMaxItems = 128
)

type Store interface {
	Name() string
	CacheEntryGet(ctx context.Context, key string) (entry db.CacheEntry, ok bool, err error)
	CacheEntryPut(ctx context.Context, args db.CacheEntryPutArgs) (pruned int64, err error)
	CacheEntryPrune(ctx context.Context, maxItems int) (pruned int64, err error)
}

func New(store Store, ttl time.Duration, maxItems int) *Cache {
	return &Cache{
		store:    store,
		lock:     lockFor(store.Name()),
		TTL:      ttl,
		MaxItems: maxItems,
		Now:      time.Now,
	}
}

type Cache struct {
	store Store
	lock  *sync.Mutex
	// TTL is how long an entry is considered fresh.
	TTL time.Duration
	// MaxItems is the number of entries retained after each write.
	MaxItems int
	Now      func() time.Time
}

type Entry struct {
	Query     string
	Timestamp time.Time
	Data      json.RawMessage
}

// locks holds one mutex per physical store, shared by every Cache opened on it.
var locks sync.Map

func lockFor(name string) *sync.Mutex {
	l, _ := locks.LoadOrStore(name, new(sync.Mutex))
	return l.(*sync.Mutex)
}

// Get returns the entry for the exact query text, whether or not it is fresh.
func (c *Cache) Get(ctx context.Context, query string) (e Entry, ok bool, err error) {
	dbe, ok, err := c.store.CacheEntryGet(ctx, query)
	if err != nil || !ok {
		return e, ok, err
	}
	return Entry{
		Query:     dbe.Key,
		Timestamp: dbe.Timestamp,
		Data:      json.RawMessage(dbe.Data),
	}, true, nil
}

func (c *Cache) Fresh(e Entry) bool {
	return c.Now().Sub(e.Timestamp) < c.TTL
}

// Put stores data against query with the current time, then prunes the store back to MaxItems.
func (c *Cache) Put(ctx context.Context, query string, data json.RawMessage) (pruned int64, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	pruned, err = c.store.CacheEntryPut(ctx, db.CacheEntryPutArgs{
		Entry: db.CacheEntry{
			Key:       query,
			Timestamp: c.Now(),
			Data:      string(data),
		},
		MaxItems: c.MaxItems,
	})
	if err != nil {
		return 0, fmt.Errorf("cache: put failed: %w", err)
	}
	return pruned, nil
}

// Prune removes the entries with the oldest timestamps until at most maxItems remain.
func (c *Cache) Prune(ctx context.Context, maxItems int) (pruned int64, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	pruned, err = c.store.CacheEntryPrune(ctx, maxItems)
	if err != nil {
		return 0, fmt.Errorf("cache: prune failed: %w", err)
	}
	return pruned, nil
}
