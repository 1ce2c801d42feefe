// Package store provides the key-value backends and the typed stores built
// on them: comparisons, pending approvals, usage counters.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ZaguanLabs/blocktl"
)

// KV is a string key-value store with per-key expiry. A ttl of 0 means the
// key never expires.
type KV interface {
	// Get returns the value and true, or false if the key is missing or
	// expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Incr atomically increments an integer counter, creating it at 1, and
	// refreshes its expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func getJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, blocktl.WrapError(blocktl.CodeStorage, "read "+key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, blocktl.WrapError(blocktl.CodeStorage, "decode "+key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv KV, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return blocktl.WrapError(blocktl.CodeStorage, "encode "+key, err)
	}
	if err := kv.Set(ctx, key, string(data), ttl); err != nil {
		return blocktl.WrapError(blocktl.CodeStorage, "write "+key, err)
	}
	return nil
}
