package license

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(keys map[string]string) (*Manager, *store.MemoryKV, *credential.MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	kv := store.NewMemoryKV()
	creds := credential.NewMemoryStore(keys)
	m := NewManager(kv, creds, WithClock(c.now))
	return m, kv, creds, c
}

func TestManager_NoDelivery(t *testing.T) {
	m, _, _, _ := setup(map[string]string{"openai": "sk-x"})
	ctx := context.Background()

	if !m.Available(ctx) {
		t.Error("Without an expiry date the feature should be available when a key exists")
	}
	if _, err := m.Extend(ctx); !errors.Is(err, ErrNoExpiry) {
		t.Errorf("Expected ErrNoExpiry, got %v", err)
	}
}

func TestManager_NoKeys(t *testing.T) {
	m, _, _, _ := setup(nil)
	if m.Available(context.Background()) {
		t.Error("Feature should be unavailable without any key")
	}
}

func TestManager_Expiry(t *testing.T) {
	m, _, _, c := setup(map[string]string{"claude": "sk-ant-x"})
	ctx := context.Background()

	info, err := m.MarkDelivered(ctx)
	if err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	if info.RemainingDays != 30 || info.Expired {
		t.Errorf("Expected 30 remaining days, got %+v", info)
	}

	c.t = c.t.Add(29*day + 23*time.Hour)
	if !m.Available(ctx) {
		t.Error("Feature should be available before expiry")
	}
	info, _ = m.Info(ctx)
	if info.RemainingDays != 1 {
		t.Errorf("Expected 1 remaining day, got %d", info.RemainingDays)
	}

	c.t = c.t.Add(2 * time.Hour)
	if m.Available(ctx) {
		t.Error("Feature should be unavailable after expiry")
	}
}

func TestManager_ExtendOnce(t *testing.T) {
	m, _, _, _ := setup(map[string]string{"openai": "sk-x"})
	ctx := context.Background()

	before, _ := m.MarkDelivered(ctx)
	after, err := m.Extend(ctx)
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}
	if got := after.ExpiryDate.Sub(before.ExpiryDate); got != ExtensionDays*day {
		t.Errorf("Expected a 30 day extension, got %v", got)
	}
	if !after.ExtensionUsed {
		t.Error("Extension should be marked used")
	}

	if _, err := m.Extend(ctx); !errors.Is(err, blocktl.ErrExtensionUsed) {
		t.Errorf("Second extension should fail with extension_used, got %v", err)
	}
}

func TestManager_EmergencyStop(t *testing.T) {
	m, kv, creds, _ := setup(map[string]string{"openai": "sk-x", "claude": "sk-ant-x"})
	ctx := context.Background()

	_, _ = m.MarkDelivered(ctx)
	_, _ = m.Extend(ctx)
	_ = kv.Set(ctx, KeyQueue, "job", 0)

	if err := m.EmergencyStop(ctx); err != nil {
		t.Fatalf("EmergencyStop failed: %v", err)
	}

	for _, p := range []string{"openai", "claude"} {
		if _, ok := creds.Key(p); ok {
			t.Errorf("%s key should be deleted", p)
		}
	}
	for _, key := range []string{KeyDeliveryDate, KeyExpiryDate, KeyQueue} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Errorf("%s should be cleared", key)
		}
	}
	if _, ok, _ := kv.Get(ctx, KeyExtensionUsed); !ok {
		t.Error("Extension flag should survive an emergency stop")
	}
	if m.Available(ctx) {
		t.Error("Feature should be unavailable after emergency stop")
	}
}

func TestManager_Enforce(t *testing.T) {
	m, kv, creds, c := setup(map[string]string{"openai": "sk-x"})
	ctx := context.Background()

	_, _ = m.MarkDelivered(ctx)
	if cleared, _ := m.Enforce(ctx); cleared {
		t.Error("Nothing should be cleared before expiry")
	}

	c.t = c.t.Add(31 * day)
	cleared, err := m.Enforce(ctx)
	if err != nil || !cleared {
		t.Fatalf("Expected state to be cleared, got %v %v", cleared, err)
	}
	if _, ok := creds.Key("openai"); ok {
		t.Error("Key should be deleted on expiry")
	}
	if _, ok, _ := kv.Get(ctx, KeyExpiryDate); ok {
		t.Error("Expiry date should be cleared")
	}
}

func TestManager_GatesTranslator(t *testing.T) {
	m, _, _, c := setup(map[string]string{"openai": "sk-x"})
	ctx := context.Background()
	_, _ = m.MarkDelivered(ctx)
	c.t = c.t.Add(31 * day)

	tr := blocktl.NewTranslator(blocktl.WithGate(m))
	if _, err := tr.Translate(ctx, "こんにちは", "en", ""); !errors.Is(err, blocktl.ErrFeatureUnavailable) {
		t.Errorf("Expected feature_unavailable, got %v", err)
	}
}
