package blocktl

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the token bucket in front of a provider.
type RateLimitConfig struct {
	RequestsPerMinute int // Sustained rate; 60 when unset
	BurstSize         int // Bucket size; RequestsPerMinute when unset

	// OnWait, when set, is called before a request is held back.
	OnWait func(provider string, delay time.Duration)
}

// NewRateLimiter builds the token bucket for cfg. The bucket starts full.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// RateLimitedProvider holds requests to the wrapped Provider back to the
// configured rate.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
	onWait   func(provider string, delay time.Duration)
}

// NewRateLimitedProvider wraps provider with its own bucket.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
		onWait:   cfg.OnWait,
	}
}

// ID implements Provider.
func (p *RateLimitedProvider) ID() string { return p.provider.ID() }

// Name implements Provider.
func (p *RateLimitedProvider) Name() string { return p.provider.Name() }

// Translate implements Provider. A request cancelled while waiting gives
// its token back and fails with api_connection_failed.
func (p *RateLimitedProvider) Translate(ctx context.Context, req Request) (string, error) {
	r := p.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		if p.onWait != nil {
			p.onWait(p.provider.ID(), delay)
		}
		if err := sleep(ctx, delay); err != nil {
			r.Cancel()
			return "", &Error{
				Code:     CodeAPIConnectionFailed,
				Message:  "rate limit wait cancelled",
				Provider: p.provider.ID(),
				Cause:    err,
			}
		}
	}
	return p.provider.Translate(ctx, req)
}

// Limiter returns the token bucket for inspection.
func (p *RateLimitedProvider) Limiter() *rate.Limiter {
	return p.limiter
}
