package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the SQLite database at path. Write transactions are started IMMEDIATE, so a
// put-and-prune holds the file's write lock from the first statement to the commit.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %q failed: %w", path, err)
	}
	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping sqlite %q failed: %w", path, err)
	}
	return &SQLite{path: path, conn: conn}, nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path)
}

type SQLite struct {
	path string
	conn *sql.DB
}

func (s *SQLite) Name() string {
	return "sqlite:" + s.path
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) CacheEntryGet(ctx context.Context, key string) (entry CacheEntry, ok bool, err error) {
	var ts int64
	err = s.conn.QueryRowContext(ctx, cacheEntryGetQuery, key).Scan(&entry.Key, &ts, &entry.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, err
	}
	entry.Timestamp = fromMillis(ts)
	return entry, true, nil
}

func (s *SQLite) CacheEntryPut(ctx context.Context, args CacheEntryPutArgs) (pruned int64, err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("db: begin failed: %w", err)
	}
	// Rollback is a no-op once the transaction has been committed.
	defer tx.Rollback()
	if _, err = tx.ExecContext(ctx, cacheEntryUpsertQuery, args.Entry.Key, toMillis(args.Entry.Timestamp), args.Entry.Data); err != nil {
		return 0, fmt.Errorf("db: upsert failed: %w", err)
	}
	if args.MaxItems > 0 {
		var res sql.Result
		if res, err = tx.ExecContext(ctx, cacheEntryPruneQuery, args.MaxItems); err != nil {
			return 0, fmt.Errorf("db: prune failed: %w", err)
		}
		if pruned, err = res.RowsAffected(); err != nil {
			return 0, fmt.Errorf("db: prune rows affected failed: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("db: commit failed: %w", err)
	}
	return pruned, nil
}

func (s *SQLite) CacheEntryPrune(ctx context.Context, maxItems int) (pruned int64, err error) {
	if err = checkMaxItems(maxItems); err != nil {
		return 0, err
	}
	res, err := s.conn.ExecContext(ctx, cacheEntryPruneQuery, maxItems)
	if err != nil {
		return 0, fmt.Errorf("db: prune failed: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) CacheEntryCount(ctx context.Context) (n int64, err error) {
	err = s.conn.QueryRowContext(ctx, cacheEntryCountQuery).Scan(&n)
	return n, err
}
