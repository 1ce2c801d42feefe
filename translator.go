package blocktl

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Provider is the interface for LLM translation backends.
type Provider interface {
	// ID is the stable key used to select the provider ("openai").
	ID() string
	// Name is the display name ("OpenAI GPT").
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// Request contains the parameters for a single provider call.
type Request struct {
	Text       string
	TargetLang string
	SourceLang string
	APIKey     string
	MaxTokens  int
}

// TextTranslator translates a single text into a language. *Translator and
// the view returned by Translator.Backward implement it.
type TextTranslator interface {
	Translate(ctx context.Context, text, targetLang, provider string) (*TranslationUnit, error)
}

// CredentialStore resolves provider API keys.
type CredentialStore interface {
	Key(provider string) (string, bool)
}

// FeatureGate reports whether translation features may be used at all.
type FeatureGate interface {
	Available(ctx context.Context) bool
}

// UsageCounter tracks translations per day and month. Increment must be
// atomic with respect to concurrent callers.
type UsageCounter interface {
	Usage(ctx context.Context, now time.Time) (Usage, error)
	Increment(ctx context.Context, now time.Time) (Usage, error)
}

// DefaultMaxTokens is the output cap passed to providers.
const DefaultMaxTokens = 2000

// Translator is the translation capability: provider selection, credential
// lookup, quota enforcement and input normalization around a Provider.
type Translator struct {
	providers       []Provider
	byID            map[string]Provider
	defaultProvider string
	sourceLang      string
	maxTokens       int
	creds           CredentialStore
	gate            FeatureGate
	usage           UsageCounter
	limits          Limits
	now             func() time.Time
	logger          *slog.Logger
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithProvider registers a provider. Registration order is the stable
// enumeration order used by AvailableProviders.
func WithProvider(p Provider) TranslatorOption {
	return func(t *Translator) {
		if _, exists := t.byID[p.ID()]; !exists {
			t.providers = append(t.providers, p)
		} else {
			for i := range t.providers {
				if t.providers[i].ID() == p.ID() {
					t.providers[i] = p
				}
			}
		}
		t.byID[p.ID()] = p
	}
}

// WithDefaultProvider sets the provider used when a call names none.
func WithDefaultProvider(id string) TranslatorOption {
	return func(t *Translator) {
		t.defaultProvider = id
	}
}

// WithSourceLang sets the declared source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithMaxTokens sets the per-call output cap.
func WithMaxTokens(n int) TranslatorOption {
	return func(t *Translator) {
		t.maxTokens = n
	}
}

// WithCredentials sets the credential store.
func WithCredentials(c CredentialStore) TranslatorOption {
	return func(t *Translator) {
		t.creds = c
	}
}

// WithGate sets the feature gate checked before every call.
func WithGate(g FeatureGate) TranslatorOption {
	return func(t *Translator) {
		t.gate = g
	}
}

// WithUsage sets the usage counter used for quota enforcement.
func WithUsage(u UsageCounter) TranslatorOption {
	return func(t *Translator) {
		t.usage = u
	}
}

// WithLimits sets the daily and monthly caps.
func WithLimits(l Limits) TranslatorOption {
	return func(t *Translator) {
		t.limits = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TranslatorOption {
	return func(t *Translator) {
		t.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTranslator creates a Translator. Without WithUsage no quota is tracked.
func NewTranslator(opts ...TranslatorOption) *Translator {
	t := &Translator{
		byID:            make(map[string]Provider),
		defaultProvider: "openai",
		sourceLang:      DefaultSourceLang,
		maxTokens:       DefaultMaxTokens,
		limits:          DefaultLimits(),
		now:             time.Now,
		logger:          slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Translate translates text into targetLang using provider, or the default
// provider when provider is empty. Usage is charged only on success.
func (t *Translator) Translate(ctx context.Context, text, targetLang, provider string) (*TranslationUnit, error) {
	if err := t.CheckAvailable(ctx); err != nil {
		return nil, err
	}
	now := t.now()
	if err := t.checkQuota(ctx, now); err != nil {
		return nil, err
	}

	p, key, err := t.resolve(provider)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeText(text)
	if normalized == "" {
		return nil, ErrEmptyText
	}

	translated, err := t.call(ctx, p, Request{
		Text:       normalized,
		TargetLang: targetLang,
		SourceLang: t.sourceLang,
		APIKey:     key,
		MaxTokens:  t.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	if t.usage != nil {
		if _, err := t.usage.Increment(ctx, now); err != nil {
			t.logger.Error("usage increment failed", "provider", p.ID(), "error", err)
		}
	}

	return &TranslationUnit{
		OriginalText:   normalized,
		TranslatedText: translated,
		TargetLanguage: targetLang,
		Provider:       p.ID(),
		Timestamp:      t.now(),
	}, nil
}

// BackTranslate translates already-translated text back into sourceLang (the
// declared source language when empty). It never checks or charges quota:
// the forward call already paid for the logical operation.
func (t *Translator) BackTranslate(ctx context.Context, text, sourceLang, provider string) (*BackTranslationResult, error) {
	if err := t.CheckAvailable(ctx); err != nil {
		return nil, err
	}

	p, key, err := t.resolve(provider)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if sourceLang == "" {
		sourceLang = t.sourceLang
	}

	back, err := t.call(ctx, p, Request{
		Text:       text,
		TargetLang: sourceLang,
		APIKey:     key,
		MaxTokens:  t.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &BackTranslationResult{
		TranslatedText:     text,
		BackTranslatedText: back,
		SourceLanguage:     sourceLang,
		Provider:           p.ID(),
		Timestamp:          t.now(),
	}, nil
}

// Backward returns a TextTranslator that back-translates instead of
// translating, so block walks can run in the reverse direction without
// charging quota.
func (t *Translator) Backward() TextTranslator {
	return backward{t: t}
}

type backward struct {
	t *Translator
}

func (b backward) Translate(ctx context.Context, text, targetLang, provider string) (*TranslationUnit, error) {
	res, err := b.t.BackTranslate(ctx, text, targetLang, provider)
	if err != nil {
		return nil, err
	}
	return &TranslationUnit{
		OriginalText:   res.TranslatedText,
		TranslatedText: res.BackTranslatedText,
		TargetLanguage: res.SourceLanguage,
		Provider:       res.Provider,
		Timestamp:      res.Timestamp,
	}, nil
}

// AvailableProviders returns the registered providers that have a usable
// credential, in registration order.
func (t *Translator) AvailableProviders() []ProviderInfo {
	var out []ProviderInfo
	for _, p := range t.providers {
		if _, ok := t.key(p.ID()); ok {
			out = append(out, ProviderInfo{ID: p.ID(), Name: p.Name()})
		}
	}
	return out
}

// Providers returns every registered provider in registration order.
func (t *Translator) Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(t.providers))
	for i, p := range t.providers {
		out[i] = ProviderInfo{ID: p.ID(), Name: p.Name()}
	}
	return out
}

// UsageStats returns the current counters and limits.
func (t *Translator) UsageStats(ctx context.Context) (UsageStats, error) {
	stats := UsageStats{DailyLimit: t.limits.Daily, MonthlyLimit: t.limits.Monthly}
	if t.usage == nil {
		return stats, nil
	}
	u, err := t.usage.Usage(ctx, t.now())
	if err != nil {
		return stats, WrapError(CodeStorage, "read usage", err)
	}
	stats.DailyUsage = u.Daily
	stats.MonthlyUsage = u.Monthly
	return stats, nil
}

// SourceLang returns the declared source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// DefaultProvider returns the provider used when a call names none.
func (t *Translator) DefaultProvider() string {
	return t.defaultProvider
}

// Logger returns the translator's logger for components built around it.
func (t *Translator) Logger() *slog.Logger {
	return t.logger
}

// CheckAvailable returns ErrFeatureUnavailable when the feature gate is closed.
func (t *Translator) CheckAvailable(ctx context.Context) error {
	if t.gate != nil && !t.gate.Available(ctx) {
		t.logger.Debug("feature unavailable")
		return ErrFeatureUnavailable
	}
	return nil
}

// checkQuota fails closed: a counter read failure blocks the call.
func (t *Translator) checkQuota(ctx context.Context, now time.Time) error {
	if t.usage == nil {
		return nil
	}
	u, err := t.usage.Usage(ctx, now)
	if err != nil {
		t.logger.Error("usage read failed", "error", err)
		return WrapError(CodeStorage, "read usage", err)
	}
	if t.limits.Daily > 0 && u.Daily >= t.limits.Daily {
		t.logger.Debug("daily limit reached", "usage", u.Daily, "limit", t.limits.Daily)
		return ErrDailyLimitExceeded
	}
	if t.limits.Monthly > 0 && u.Monthly >= t.limits.Monthly {
		t.logger.Debug("monthly limit reached", "usage", u.Monthly, "limit", t.limits.Monthly)
		return ErrMonthlyLimitExceeded
	}
	return nil
}

func (t *Translator) resolve(id string) (Provider, string, error) {
	if id == "" {
		id = t.defaultProvider
	}
	p, ok := t.byID[id]
	if !ok {
		return nil, "", NewError(CodeInvalidProvider, "invalid provider "+id)
	}
	key, ok := t.key(id)
	if !ok {
		t.logger.Debug("no api key", "provider", id)
		return nil, "", &Error{Code: CodeNoAPIKey, Provider: id}
	}
	return p, key, nil
}

func (t *Translator) key(id string) (string, bool) {
	if t.creds == nil {
		return "", false
	}
	key, ok := t.creds.Key(id)
	return key, ok && key != ""
}

func (t *Translator) call(ctx context.Context, p Provider, req Request) (string, error) {
	out, err := p.Translate(ctx, req)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			err = &Error{Code: CodeAPIConnectionFailed, Provider: p.ID(), Retryable: true, Cause: err}
		}
		t.logger.Warn("provider call failed", "provider", p.ID(), "code", CodeOf(err), "error", err)
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &Error{Code: CodeEmptyTranslation, Provider: p.ID()}
	}
	return out, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText decodes HTML entities, collapses whitespace runs to a single
// space and trims.
func NormalizeText(text string) string {
	text = html.UnescapeString(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
