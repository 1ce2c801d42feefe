package store

import (
	"context"
	"strconv"
	"time"

	"github.com/ZaguanLabs/blocktl"
)

const (
	dailyTTL   = 48 * time.Hour
	monthlyTTL = 32 * 24 * time.Hour
)

// UsageCounter counts translations per calendar day and month. Each period
// has its own key, so a new day or month starts from zero.
type UsageCounter struct {
	kv  KV
	loc *time.Location
}

// NewUsageCounter creates a counter whose periods follow loc (UTC when nil).
func NewUsageCounter(kv KV, loc *time.Location) *UsageCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &UsageCounter{kv: kv, loc: loc}
}

// DailyKey returns the counter key for the day of now.
func (u *UsageCounter) DailyKey(now time.Time) string {
	return "usage:daily:" + now.In(u.loc).Format("2006-01-02")
}

// MonthlyKey returns the counter key for the month of now.
func (u *UsageCounter) MonthlyKey(now time.Time) string {
	return "usage:monthly:" + now.In(u.loc).Format("2006-01")
}

// Usage implements blocktl.UsageCounter.
func (u *UsageCounter) Usage(ctx context.Context, now time.Time) (blocktl.Usage, error) {
	daily, err := u.read(ctx, u.DailyKey(now))
	if err != nil {
		return blocktl.Usage{}, err
	}
	monthly, err := u.read(ctx, u.MonthlyKey(now))
	if err != nil {
		return blocktl.Usage{}, err
	}
	return blocktl.Usage{Daily: daily, Monthly: monthly}, nil
}

// Increment implements blocktl.UsageCounter.
func (u *UsageCounter) Increment(ctx context.Context, now time.Time) (blocktl.Usage, error) {
	daily, err := u.kv.Incr(ctx, u.DailyKey(now), dailyTTL)
	if err != nil {
		return blocktl.Usage{}, blocktl.WrapError(blocktl.CodeStorage, "increment daily usage", err)
	}
	monthly, err := u.kv.Incr(ctx, u.MonthlyKey(now), monthlyTTL)
	if err != nil {
		return blocktl.Usage{}, blocktl.WrapError(blocktl.CodeStorage, "increment monthly usage", err)
	}
	return blocktl.Usage{Daily: daily, Monthly: monthly}, nil
}

func (u *UsageCounter) read(ctx context.Context, key string) (int64, error) {
	raw, ok, err := u.kv.Get(ctx, key)
	if err != nil {
		return 0, blocktl.WrapError(blocktl.CodeStorage, "read "+key, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, blocktl.WrapError(blocktl.CodeStorage, "parse "+key, err)
	}
	return n, nil
}

// Verify UsageCounter implements blocktl.UsageCounter
var _ blocktl.UsageCounter = (*UsageCounter)(nil)
