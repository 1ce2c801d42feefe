// Package license implements the delivery expiry gate. Translation is
// available only while the expiry date has not passed and at least one
// provider key is stored.
package license

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/store"
)

const (
	// DefaultPresetDays is the lifetime set at delivery.
	DefaultPresetDays = 30
	// ExtensionDays is added by the one-time extension.
	ExtensionDays = 30

	day = 24 * time.Hour
)

// State keys in the backing KV.
const (
	KeyDeliveryDate  = "license:delivery_date"
	KeyExpiryDate    = "license:expiry_date"
	KeyExtensionUsed = "license:extension_used"
	KeyQueue         = "queue"
	KeyProcessing    = "processing"
)

// ErrNoExpiry is returned by Extend before delivery has been marked.
var ErrNoExpiry = errors.New("license: expiry is not set")

// Info describes the current expiry state. Zero dates mean unset.
type Info struct {
	DeliveryDate  time.Time `json:"delivery_date,omitempty"`
	ExpiryDate    time.Time `json:"expiry_date,omitempty"`
	ExtensionUsed bool      `json:"extension_used"`
	RemainingDays int       `json:"remaining_days"`
	Expired       bool      `json:"expired"`
}

// Manager owns the expiry state and implements blocktl.FeatureGate.
type Manager struct {
	kv         store.KV
	creds      credential.Store
	providers  []string
	presetDays int
	now        func() time.Time
	logger     *slog.Logger
}

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithPresetDays sets the lifetime granted at delivery.
func WithPresetDays(days int) Option {
	return func(m *Manager) {
		if days > 0 {
			m.presetDays = days
		}
	}
}

// WithProviders sets the providers whose keys are checked and deleted.
func WithProviders(ids ...string) Option {
	return func(m *Manager) {
		m.providers = ids
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager over kv and the credential store.
func NewManager(kv store.KV, creds credential.Store, opts ...Option) *Manager {
	m := &Manager{
		kv:         kv,
		creds:      creds,
		providers:  []string{"openai", "claude", "gemini"},
		presetDays: DefaultPresetDays,
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MarkDelivered records delivery now and sets the expiry to now plus the
// preset lifetime.
func (m *Manager) MarkDelivered(ctx context.Context) (Info, error) {
	now := m.now()
	if err := m.setTime(ctx, KeyDeliveryDate, now); err != nil {
		return Info{}, err
	}
	if err := m.setTime(ctx, KeyExpiryDate, now.Add(time.Duration(m.presetDays)*day)); err != nil {
		return Info{}, err
	}
	m.logger.Info("delivery marked", "preset_days", m.presetDays)
	return m.Info(ctx)
}

// Extend pushes the expiry back by ExtensionDays. It can be used once.
func (m *Manager) Extend(ctx context.Context) (Info, error) {
	info, err := m.Info(ctx)
	if err != nil {
		return Info{}, err
	}
	if info.ExtensionUsed {
		return Info{}, blocktl.ErrExtensionUsed
	}
	if info.ExpiryDate.IsZero() {
		return Info{}, ErrNoExpiry
	}

	if err := m.setTime(ctx, KeyExpiryDate, info.ExpiryDate.Add(ExtensionDays*day)); err != nil {
		return Info{}, err
	}
	if err := m.kv.Set(ctx, KeyExtensionUsed, "1", 0); err != nil {
		return Info{}, blocktl.WrapError(blocktl.CodeStorage, "write extension flag", err)
	}
	m.logger.Info("expiry extended", "days", ExtensionDays)
	return m.Info(ctx)
}

// EmergencyStop deletes every provider key, the delivery and expiry dates
// and the queue key. The extension flag is kept.
func (m *Manager) EmergencyStop(ctx context.Context) error {
	if err := credential.DeleteAll(m.creds, m.providers...); err != nil {
		return err
	}
	if err := m.kv.Delete(ctx, KeyDeliveryDate, KeyExpiryDate, KeyQueue); err != nil {
		return blocktl.WrapError(blocktl.CodeStorage, "clear expiry state", err)
	}
	m.logger.Warn("emergency stop executed")
	return nil
}

// Enforce clears keys and all expiry state once the expiry has passed. It
// reports whether anything was cleared.
func (m *Manager) Enforce(ctx context.Context) (bool, error) {
	info, err := m.Info(ctx)
	if err != nil {
		return false, err
	}
	if !info.Expired {
		return false, nil
	}

	if err := credential.DeleteAll(m.creds, m.providers...); err != nil {
		return false, err
	}
	err = m.kv.Delete(ctx, KeyDeliveryDate, KeyExpiryDate, KeyExtensionUsed, KeyQueue, KeyProcessing)
	if err != nil {
		return false, blocktl.WrapError(blocktl.CodeStorage, "clear expiry state", err)
	}
	m.logger.Warn("expired, keys deleted", "expiry", info.ExpiryDate)
	return true, nil
}

// Info reads the current state.
func (m *Manager) Info(ctx context.Context) (Info, error) {
	var info Info
	var err error
	if info.DeliveryDate, err = m.getTime(ctx, KeyDeliveryDate); err != nil {
		return Info{}, err
	}
	if info.ExpiryDate, err = m.getTime(ctx, KeyExpiryDate); err != nil {
		return Info{}, err
	}
	_, info.ExtensionUsed, err = m.kv.Get(ctx, KeyExtensionUsed)
	if err != nil {
		return Info{}, blocktl.WrapError(blocktl.CodeStorage, "read extension flag", err)
	}

	if !info.ExpiryDate.IsZero() {
		now := m.now()
		info.Expired = now.After(info.ExpiryDate)
		info.RemainingDays = int(math.Ceil(info.ExpiryDate.Sub(now).Hours() / 24))
	}
	return info, nil
}

// Expired reports whether the expiry date has passed. Without an expiry
// date nothing expires.
func (m *Manager) Expired(ctx context.Context) (bool, error) {
	info, err := m.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.Expired, nil
}

// Available implements blocktl.FeatureGate. A state read failure closes
// the gate.
func (m *Manager) Available(ctx context.Context) bool {
	expired, err := m.Expired(ctx)
	if err != nil {
		m.logger.Error("read expiry state failed", "error", err)
		return false
	}
	if expired {
		return false
	}
	for _, p := range m.providers {
		if _, ok := m.creds.Key(p); ok {
			return true
		}
	}
	return false
}

func (m *Manager) setTime(ctx context.Context, key string, t time.Time) error {
	if err := m.kv.Set(ctx, key, t.UTC().Format(time.RFC3339), 0); err != nil {
		return blocktl.WrapError(blocktl.CodeStorage, "write "+key, err)
	}
	return nil
}

func (m *Manager) getTime(ctx context.Context, key string) (time.Time, error) {
	raw, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		return time.Time{}, blocktl.WrapError(blocktl.CodeStorage, "read "+key, err)
	}
	if !ok {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, blocktl.WrapError(blocktl.CodeStorage, "parse "+key, err)
	}
	return t, nil
}

// Verify Manager implements blocktl.FeatureGate
var _ blocktl.FeatureGate = (*Manager)(nil)
