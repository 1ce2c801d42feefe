package blocktl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubProvider is a hand-rolled Provider for testing.
type stubProvider struct {
	id       string
	fn       func(Request) (string, error)
	calls    int
	requests []Request
}

func (p *stubProvider) ID() string   { return p.id }
func (p *stubProvider) Name() string { return "Stub " + p.id }

func (p *stubProvider) Translate(ctx context.Context, req Request) (string, error) {
	p.calls++
	p.requests = append(p.requests, req)
	return p.fn(req)
}

func mapProvider(id string, m map[string]string) *stubProvider {
	return &stubProvider{id: id, fn: func(req Request) (string, error) {
		if out, ok := m[req.Text]; ok {
			return out, nil
		}
		return "[" + req.Text + "]", nil
	}}
}

type staticKeys map[string]string

func (k staticKeys) Key(provider string) (string, bool) {
	v, ok := k[provider]
	return v, ok
}

type gate bool

func (g gate) Available(context.Context) bool { return bool(g) }

// countingUsage is an in-memory UsageCounter keyed by day and month.
type countingUsage struct {
	mu      sync.Mutex
	daily   map[string]int64
	monthly map[string]int64
	fail    error
}

func newCountingUsage() *countingUsage {
	return &countingUsage{daily: map[string]int64{}, monthly: map[string]int64{}}
}

func (u *countingUsage) Usage(ctx context.Context, now time.Time) (Usage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return Usage{}, u.fail
	}
	return Usage{Daily: u.daily[now.Format("2006-01-02")], Monthly: u.monthly[now.Format("2006-01")]}, nil
}

func (u *countingUsage) Increment(ctx context.Context, now time.Time) (Usage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.daily[now.Format("2006-01-02")]++
	u.monthly[now.Format("2006-01")]++
	return Usage{Daily: u.daily[now.Format("2006-01-02")], Monthly: u.monthly[now.Format("2006-01")]}, nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestTranslator(p Provider, opts ...TranslatorOption) *Translator {
	base := []TranslatorOption{
		WithProvider(p),
		WithDefaultProvider(p.ID()),
		WithCredentials(staticKeys{p.ID(): "sk-test"}),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewTranslator(append(base, opts...)...)
}

func TestTranslator_Translate(t *testing.T) {
	p := mapProvider("openai", map[string]string{"こんにちは": "Hello"})
	usage := newCountingUsage()
	tr := newTestTranslator(p, WithUsage(usage))

	unit, err := tr.Translate(context.Background(), "  こんにちは ", "en", "")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if unit.TranslatedText != "Hello" {
		t.Errorf("Expected 'Hello', got %q", unit.TranslatedText)
	}
	if unit.OriginalText != "こんにちは" {
		t.Errorf("Expected normalized original, got %q", unit.OriginalText)
	}
	if unit.Provider != "openai" || unit.TargetLanguage != "en" {
		t.Errorf("Unexpected unit metadata: %+v", unit)
	}
	if !unit.Timestamp.Equal(fixedNow) {
		t.Errorf("Expected timestamp from clock, got %v", unit.Timestamp)
	}

	req := p.requests[0]
	if req.APIKey != "sk-test" || req.MaxTokens != DefaultMaxTokens || req.SourceLang != "ja" {
		t.Errorf("Unexpected request: %+v", req)
	}

	u, _ := usage.Usage(context.Background(), fixedNow)
	if u.Daily != 1 || u.Monthly != 1 {
		t.Errorf("Expected usage 1/1, got %+v", u)
	}
}

func TestTranslator_NormalizesText(t *testing.T) {
	p := mapProvider("openai", nil)
	tr := newTestTranslator(p)

	_, err := tr.Translate(context.Background(), "Tom &amp; Jerry\n\t  run", "fr", "")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if p.requests[0].Text != "Tom & Jerry run" {
		t.Errorf("Expected normalized text, got %q", p.requests[0].Text)
	}
}

func TestTranslator_EmptyText(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	tr := newTestTranslator(p, WithUsage(usage))

	_, err := tr.Translate(context.Background(), " \n\t ", "en", "")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}

	_, err = tr.Translate(context.Background(), "&#32;&#32;", "en", "")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestTranslator_QuotaFailsClosed(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	usage.daily[fixedNow.Format("2006-01-02")] = 5
	tr := newTestTranslator(p, WithUsage(usage), WithLimits(Limits{Daily: 5, Monthly: 100}))

	_, err := tr.Translate(context.Background(), "text", "en", "")
	if !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("Expected ErrDailyLimitExceeded, got %v", err)
	}
	if p.calls != 0 {
		t.Errorf("Provider must not be called when over quota, got %d calls", p.calls)
	}

	u, _ := usage.Usage(context.Background(), fixedNow)
	if u.Daily != 5 {
		t.Errorf("Counter must not be incremented, got %d", u.Daily)
	}
}

func TestTranslator_MonthlyLimit(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	usage.monthly[fixedNow.Format("2006-01")] = 3000
	tr := newTestTranslator(p, WithUsage(usage))

	_, err := tr.Translate(context.Background(), "text", "en", "")
	if !errors.Is(err, ErrMonthlyLimitExceeded) {
		t.Fatalf("Expected ErrMonthlyLimitExceeded, got %v", err)
	}
}

func TestTranslator_UnlimitedWhenZero(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	usage.daily[fixedNow.Format("2006-01-02")] = 1000
	tr := newTestTranslator(p, WithUsage(usage), WithLimits(Limits{}))

	if _, err := tr.Translate(context.Background(), "text", "en", ""); err != nil {
		t.Fatalf("Expected no limit, got %v", err)
	}
}

func TestTranslator_UsageReadFailureBlocks(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	usage.fail = errors.New("redis down")
	tr := newTestTranslator(p, WithUsage(usage))

	_, err := tr.Translate(context.Background(), "text", "en", "")
	if CodeOf(err) != CodeStorage {
		t.Fatalf("Expected storage error, got %v", err)
	}
	if p.calls != 0 {
		t.Error("Provider must not be called when usage cannot be read")
	}
}

func TestTranslator_GateClosed(t *testing.T) {
	p := mapProvider("openai", nil)
	usage := newCountingUsage()
	tr := newTestTranslator(p, WithUsage(usage), WithGate(gate(false)))

	if _, err := tr.Translate(context.Background(), "text", "en", ""); !errors.Is(err, ErrFeatureUnavailable) {
		t.Errorf("Expected ErrFeatureUnavailable, got %v", err)
	}
	if _, err := tr.BackTranslate(context.Background(), "text", "ja", ""); !errors.Is(err, ErrFeatureUnavailable) {
		t.Errorf("Expected ErrFeatureUnavailable on back-translate, got %v", err)
	}
	if p.calls != 0 {
		t.Error("No provider call expected with a closed gate")
	}
}

func TestTranslator_ProviderResolution(t *testing.T) {
	p := mapProvider("openai", nil)
	tr := NewTranslator(WithProvider(p), WithProvider(mapProvider("claude", nil)),
		WithCredentials(staticKeys{"openai": "sk-x"}))

	if _, err := tr.Translate(context.Background(), "text", "en", "bogus"); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Expected ErrInvalidProvider, got %v", err)
	}
	if _, err := tr.Translate(context.Background(), "text", "en", "claude"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
	if _, err := tr.Translate(context.Background(), "text", "en", ""); err != nil {
		t.Errorf("Default provider should be openai: %v", err)
	}
}

func TestTranslator_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(Request) (string, error)
		code Code
	}{
		{"coded error passes through", func(Request) (string, error) {
			return "", &Error{Code: CodeAPIError, Message: "Incorrect API key provided"}
		}, CodeAPIError},
		{"uncoded error is a connection failure", func(Request) (string, error) {
			return "", errors.New("dial tcp: timeout")
		}, CodeAPIConnectionFailed},
		{"blank output", func(Request) (string, error) {
			return "  \n", nil
		}, CodeEmptyTranslation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := newCountingUsage()
			tr := newTestTranslator(&stubProvider{id: "openai", fn: tt.fn}, WithUsage(usage))

			_, err := tr.Translate(context.Background(), "text", "en", "")
			if CodeOf(err) != tt.code {
				t.Errorf("Expected %s, got %v", tt.code, err)
			}
			u, _ := usage.Usage(context.Background(), fixedNow)
			if u.Daily != 0 {
				t.Error("Failed calls must not be charged")
			}
		})
	}
}

func TestTranslator_BackTranslate(t *testing.T) {
	p := mapProvider("openai", map[string]string{"Bonjour": "Hello"})
	usage := newCountingUsage()
	tr := newTestTranslator(p, WithUsage(usage), WithLimits(Limits{Daily: 1}))
	usage.daily[fixedNow.Format("2006-01-02")] = 1

	res, err := tr.BackTranslate(context.Background(), "Bonjour", "", "")
	if err != nil {
		t.Fatalf("BackTranslate failed: %v", err)
	}
	if res.BackTranslatedText != "Hello" || res.TranslatedText != "Bonjour" {
		t.Errorf("Unexpected result: %+v", res)
	}
	if res.SourceLanguage != "ja" {
		t.Errorf("Expected default source language ja, got %q", res.SourceLanguage)
	}
	if p.requests[0].TargetLang != "ja" {
		t.Errorf("Expected request into ja, got %q", p.requests[0].TargetLang)
	}

	u, _ := usage.Usage(context.Background(), fixedNow)
	if u.Daily != 1 {
		t.Errorf("Back-translation must not be charged, got %d", u.Daily)
	}
}

func TestTranslator_Backward(t *testing.T) {
	p := mapProvider("openai", map[string]string{"Hello": "こんにちは"})
	tr := newTestTranslator(p)

	unit, err := tr.Backward().Translate(context.Background(), "Hello", "ja", "")
	if err != nil {
		t.Fatalf("Backward translate failed: %v", err)
	}
	if unit.TranslatedText != "こんにちは" || unit.TargetLanguage != "ja" {
		t.Errorf("Unexpected unit: %+v", unit)
	}
}

func TestTranslator_AvailableProviders(t *testing.T) {
	tr := NewTranslator(
		WithProvider(mapProvider("openai", nil)),
		WithProvider(mapProvider("claude", nil)),
		WithProvider(mapProvider("gemini", nil)),
		WithCredentials(staticKeys{"gemini": "AIza-x", "openai": "sk-x", "claude": ""}),
	)

	got := tr.AvailableProviders()
	if len(got) != 2 || got[0].ID != "openai" || got[1].ID != "gemini" {
		t.Errorf("Unexpected providers: %+v", got)
	}
	if got[0].Name != "Stub openai" {
		t.Errorf("Unexpected name %q", got[0].Name)
	}
	if len(tr.Providers()) != 3 {
		t.Errorf("Expected 3 registered providers, got %d", len(tr.Providers()))
	}
}

func TestTranslator_UsageStats(t *testing.T) {
	usage := newCountingUsage()
	usage.daily[fixedNow.Format("2006-01-02")] = 7
	usage.monthly[fixedNow.Format("2006-01")] = 70
	tr := newTestTranslator(mapProvider("openai", nil), WithUsage(usage))

	stats, err := tr.UsageStats(context.Background())
	if err != nil {
		t.Fatalf("UsageStats failed: %v", err)
	}
	want := UsageStats{DailyUsage: 7, DailyLimit: 100, MonthlyUsage: 70, MonthlyLimit: 3000}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  a  b ", "a b"},
		{"&lt;b&gt;", "<b>"},
		{"line\nbreak", "line break"},
		{"&quot;q&#39;s&quot;", `"q's"`},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
