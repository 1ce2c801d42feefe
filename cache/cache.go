// Package cache memoizes provider translations in a store.KV, so the same
// text sent to the same provider for the same language pair is only paid
// for once.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/store"
)

// keyPrefix namespaces cache entries in a KV shared with other stores.
const keyPrefix = "tcache:"

// Key builds the cache key of a request sent to a provider.
func Key(providerID string, req blocktl.Request) string {
	return keyPrefix + providerID + ":" + req.SourceLang + ":" + req.TargetLang + ":" + blocktl.HashText(req.Text)
}

// Provider wraps a blocktl.Provider with a read-through translation cache.
// Cache failures are logged and never fail a translation.
type Provider struct {
	provider blocktl.Provider
	kv       store.KV
	ttl      time.Duration
	logger   *slog.Logger
}

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithLogger sets the logger for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// New wraps p. A ttl of 0 keeps entries forever.
func New(p blocktl.Provider, kv store.KV, ttl time.Duration, opts ...Option) *Provider {
	c := &Provider{
		provider: p,
		kv:       kv,
		ttl:      ttl,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements blocktl.Provider.
func (c *Provider) ID() string { return c.provider.ID() }

// Name implements blocktl.Provider.
func (c *Provider) Name() string { return c.provider.Name() }

// Translate implements blocktl.Provider.
func (c *Provider) Translate(ctx context.Context, req blocktl.Request) (string, error) {
	key := Key(c.provider.ID(), req)

	cached, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "translation cache read failed", "provider", c.provider.ID(), "error", err)
	} else if ok {
		return cached, nil
	}

	translated, err := c.provider.Translate(ctx, req)
	if err != nil || translated == "" {
		return translated, err
	}
	if err := c.kv.Set(ctx, key, translated, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "translation cache write failed", "provider", c.provider.ID(), "error", err)
	}
	return translated, nil
}

// Verify Provider implements blocktl.Provider
var _ blocktl.Provider = (*Provider)(nil)
