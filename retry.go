package blocktl

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls how transient provider failures are retried.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound for a single delay

	// OnRetry, when set, is called before each retry with the attempt
	// number (1 for the first retry), the failure and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns 3 retries starting at one second, capped at 30.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt (starting at 1).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry calls fn until it succeeds, fails with an error IsRetryable
// rejects, or the retries are used up. The last error is returned.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			return zero, err
		}

		delay := cfg.Backoff(attempt + 1)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable reports whether err is a transient provider failure.
// Cancellation and quota errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsQuotaError(err) {
		return false
	}
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// RetryableProvider retries transient failures of the wrapped Provider.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryableProvider wraps provider with cfg.
func NewRetryableProvider(provider Provider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{provider: provider, config: cfg}
}

// ID implements Provider.
func (p *RetryableProvider) ID() string { return p.provider.ID() }

// Name implements Provider.
func (p *RetryableProvider) Name() string { return p.provider.Name() }

// Translate implements Provider.
func (p *RetryableProvider) Translate(ctx context.Context, req Request) (string, error) {
	return WithRetry(ctx, p.config, func() (string, error) {
		return p.provider.Translate(ctx, req)
	})
}
