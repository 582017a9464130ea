package db

import (
	"context"
	"fmt"

	"github.com/rqlite/gorqlite"
)

// OpenRqlite connects to an rqlite cluster so that several gateways can share one cache.
func OpenRqlite(u RqliteURL) (*Rqlite, error) {
	conn, err := gorqlite.Open(u.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("db: failed to open rqlite connection: %w", err)
	}
	return NewRqlite(u.URL.Host, conn), nil
}

func NewRqlite(host string, conn *gorqlite.Connection) *Rqlite {
	return &Rqlite{
		host: host,
		conn: conn,
	}
}

type Rqlite struct {
	host string
	conn *gorqlite.Connection
}

func (q *Rqlite) Name() string {
	return "rqlite:" + q.host
}

func (q *Rqlite) Close() error {
	q.conn.Close()
	return nil
}

func (q *Rqlite) CacheEntryGet(ctx context.Context, key string) (entry CacheEntry, ok bool, err error) {
	stmt := gorqlite.ParameterizedStatement{
		Query:     cacheEntryGetQuery,
		Arguments: []any{key},
	}
	result, err := q.conn.QueryOneParameterizedContext(ctx, stmt)
	if err != nil {
		return CacheEntry{}, false, err
	}
	if !result.Next() {
		return CacheEntry{}, false, nil
	}
	var ts int64
	if err = result.Scan(&entry.Key, &ts, &entry.Data); err != nil {
		return CacheEntry{}, false, err
	}
	entry.Timestamp = fromMillis(ts)
	return entry, true, nil
}

func (q *Rqlite) CacheEntryPut(ctx context.Context, args CacheEntryPutArgs) (pruned int64, err error) {
	statements := []gorqlite.ParameterizedStatement{
		{
			Query:     cacheEntryUpsertQuery,
			Arguments: []any{args.Entry.Key, toMillis(args.Entry.Timestamp), args.Entry.Data},
		},
	}
	if args.MaxItems > 0 {
		statements = append(statements, gorqlite.ParameterizedStatement{
			Query:     cacheEntryPruneQuery,
			Arguments: []any{args.MaxItems},
		})
	}
	results, err := q.conn.WriteParameterizedContext(ctx, statements)
	if err != nil {
		return 0, fmt.Errorf("db: cache put failed: %w", err)
	}
	if len(results) == 2 {
		pruned = results[1].RowsAffected
	}
	return pruned, nil
}

func (q *Rqlite) CacheEntryPrune(ctx context.Context, maxItems int) (pruned int64, err error) {
	if err = checkMaxItems(maxItems); err != nil {
		return 0, err
	}
	stmt := gorqlite.ParameterizedStatement{
		Query:     cacheEntryPruneQuery,
		Arguments: []any{maxItems},
	}
	result, err := q.conn.WriteOneParameterizedContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("db: prune failed: %w", err)
	}
	return result.RowsAffected, nil
}

func (q *Rqlite) CacheEntryCount(ctx context.Context) (n int64, err error) {
	stmt := gorqlite.ParameterizedStatement{
		Query: cacheEntryCountQuery,
	}
	result, err := q.conn.QueryOneParameterizedContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if !result.Next() {
		return 0, fmt.Errorf("db: expected a count")
	}
	err = result.Scan(&n)
	return n, err
}
