package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SQLiteKV is a KV kept in a table of an existing SQLite database. It gives
// the CLI durable comparisons, approvals and counters without Redis.
type SQLiteKV struct {
	db  *sql.DB
	sq  sq.StatementBuilderType
	now func() time.Time
}

// NewSQLiteKV creates the kv table if needed.
func NewSQLiteKV(ctx context.Context, db *sql.DB) (*SQLiteKV, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        expires_at INTEGER NOT NULL DEFAULT 0
    )`); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteKV{db: db, sq: sq.StatementBuilder, now: time.Now}, nil
}

// WithClock overrides the time source used for expiry.
func (s *SQLiteKV) WithClock(now func() time.Time) *SQLiteKV {
	s.now = now
	return s
}

func (s *SQLiteKV) expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return s.now().Add(ttl).UnixNano()
}

func (s *SQLiteKV) live(expires int64) bool {
	return expires == 0 || s.now().UnixNano() < expires
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteKV) read(ctx context.Context, q queryRower, key string) (string, bool, error) {
	sqlStr, args, _ := s.sq.Select("value", "expires_at").From("kv").Where(sq.Eq{"key": key}).ToSql()
	var value string
	var expires int64
	err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !s.live(expires) {
		return "", false, nil
	}
	return value, true, nil
}

func (s *SQLiteKV) upsert(key, value string, expires int64) (string, []any) {
	sqlStr, args, _ := s.sq.Insert("kv").Columns("key", "value", "expires_at").
		Values(key, value, expires).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at").
		ToSql()
	return sqlStr, args
}

// Get implements KV.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	return s.read(ctx, s.db, key)
}

// Set implements KV.
func (s *SQLiteKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	sqlStr, args := s.upsert(key, value, s.expiry(ttl))
	_, err := s.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Delete implements KV.
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	sqlStr, args, _ := s.sq.Delete("kv").Where(sq.Eq{"key": keys}).ToSql()
	_, err := s.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Incr implements KV. Read and write share one transaction.
func (s *SQLiteKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	value, ok, err := s.read(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	var n int64
	if ok {
		if n, err = strconv.ParseInt(value, 10, 64); err != nil {
			return 0, fmt.Errorf("value of %q is not an integer", key)
		}
	}
	n++

	sqlStr, args := s.upsert(key, strconv.FormatInt(n, 10), s.expiry(ttl))
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Purge deletes expired entries.
func (s *SQLiteKV) Purge(ctx context.Context) (int64, error) {
	sqlStr, args, _ := s.sq.Delete("kv").
		Where(sq.And{sq.Gt{"expires_at": 0}, sq.LtOrEq{"expires_at": s.now().UnixNano()}}).
		ToSql()
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Verify SQLiteKV implements KV
var _ KV = (*SQLiteKV)(nil)
