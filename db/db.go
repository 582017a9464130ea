package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CacheEntry is a context payload stored against the exact query text that fetched it.
type CacheEntry struct {
	Key       string
	Timestamp time.Time
	Data      string
}

type CacheEntryPutArgs struct {
	Entry CacheEntry
	// MaxItems is the number of entries kept after the put. Zero or less disables pruning.
	MaxItems int
}

// Store is implemented by the SQLite and rqlite backends.
type Store interface {
	// Name identifies the physical store, e.g. the database file.
	Name() string
	CacheEntryGet(ctx context.Context, key string) (entry CacheEntry, ok bool, err error)
	CacheEntryPut(ctx context.Context, args CacheEntryPutArgs) (pruned int64, err error)
	CacheEntryPrune(ctx context.Context, maxItems int) (pruned int64, err error)
	CacheEntryCount(ctx context.Context) (n int64, err error)
	Close() error
}

const cacheEntryGetQuery = `select key, timestamp, data from context_cache where key = ?`

const cacheEntryUpsertQuery = `insert into context_cache (key, timestamp, data)
values (?, ?, ?)
on conflict(key) do update
set
    timestamp = excluded.timestamp,
    data = excluded.data
`

// Oldest first, ties broken by key so that eviction order is reproducible.
const cacheEntryPruneQuery = `delete from context_cache where key in (
  select key from context_cache
  order by timestamp asc, key asc
  limit max(0, (select count(*) from context_cache) - ?)
)`

const cacheEntryCountQuery = `select count(*) from context_cache`

// Open connects to the cache store at location and migrates its schema. Locations starting with
// http:// or https:// are rqlite servers, anything else is a path to a SQLite database file.
func Open(location string) (Store, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		u, err := ParseRqliteURL(location)
		if err != nil {
			return nil, err
		}
		if err = Migrate(u.MigrateDatabaseURL()); err != nil {
			return nil, err
		}
		return OpenRqlite(u)
	}
	if err := Migrate(SQLiteMigrateURL(location)); err != nil {
		return nil, err
	}
	return OpenSQLite(location)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func checkMaxItems(maxItems int) error {
	if maxItems < 0 {
		return fmt.Errorf("db: max items must not be negative, got %d", maxItems)
	}
	return nil
}
