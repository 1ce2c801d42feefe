package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newSQLiteKV(t *testing.T, c *clock) *SQLiteKV {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	kv, err := NewSQLiteKV(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteKV failed: %v", err)
	}
	return kv.WithClock(c.now)
}

func TestSQLiteKV_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	kv := newSQLiteKV(t, &clock{t: time.Now()})

	if _, ok, err := kv.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Expected clean miss, got %v %v", ok, err)
	}

	_ = kv.Set(ctx, "k", "v1", 0)
	_ = kv.Set(ctx, "k", "v2", 0)
	if v, ok, _ := kv.Get(ctx, "k"); !ok || v != "v2" {
		t.Errorf("Set should overwrite, got %q %v", v, ok)
	}

	if err := kv.Delete(ctx, "k", "never-set"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestSQLiteKV_TTLAndPurge(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	kv := newSQLiteKV(t, c)

	_ = kv.Set(ctx, "short", "v", time.Minute)
	_ = kv.Set(ctx, "forever", "v", 0)

	c.t = c.t.Add(2 * time.Minute)
	if _, ok, _ := kv.Get(ctx, "short"); ok {
		t.Error("Entry should have expired")
	}
	if _, ok, _ := kv.Get(ctx, "forever"); !ok {
		t.Error("Entry without TTL should never expire")
	}

	n, err := kv.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v; want 1", n, err)
	}
}

func TestSQLiteKV_Incr(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	kv := newSQLiteKV(t, c)

	for want := int64(1); want <= 3; want++ {
		if n, err := kv.Incr(ctx, "counter", time.Hour); err != nil || n != want {
			t.Fatalf("Incr = %d, %v; want %d", n, err, want)
		}
	}

	c.t = c.t.Add(2 * time.Hour)
	if n, _ := kv.Incr(ctx, "counter", time.Hour); n != 1 {
		t.Errorf("Expired counter should restart at 1, got %d", n)
	}

	_ = kv.Set(ctx, "text", "abc", 0)
	if _, err := kv.Incr(ctx, "text", 0); err == nil {
		t.Error("Expected error incrementing a non-integer")
	}
}

func TestSQLiteKV_ConcurrentIncr(t *testing.T) {
	ctx := context.Background()
	kv := newSQLiteKV(t, &clock{t: time.Now()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := kv.Incr(ctx, "n", 0); err != nil {
				t.Errorf("Incr failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if v, _, _ := kv.Get(ctx, "n"); v != "20" {
		t.Errorf("Expected 20, got %q", v)
	}
}

func TestUsageCounter_SQLite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	u := NewUsageCounter(newSQLiteKV(t, &clock{t: now}), nil)

	_, _ = u.Increment(ctx, now)
	got, err := u.Increment(ctx, now)
	if err != nil || got.Daily != 2 || got.Monthly != 2 {
		t.Errorf("Unexpected usage %+v %v", got, err)
	}
}
