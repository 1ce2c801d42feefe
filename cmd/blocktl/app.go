package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/cache"
	"github.com/ZaguanLabs/blocktl/compare"
	"github.com/ZaguanLabs/blocktl/config"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/docstore"
	"github.com/ZaguanLabs/blocktl/license"
	"github.com/ZaguanLabs/blocktl/logger"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/provider"
	"github.com/ZaguanLabs/blocktl/quality"
	"github.com/ZaguanLabs/blocktl/review"
	"github.com/ZaguanLabs/blocktl/store"
	"github.com/spf13/cobra"
)

// newProviders builds the provider backends in registration order.
// Replaced in tests.
var newProviders = defaultProviders

// keyringService is the OS keychain service name.
var keyringService = blocktl.Name

func defaultProviders(cfg config.Config) []blocktl.Provider {
	return []blocktl.Provider{
		provider.NewOpenAIProvider(provider.OpenAIConfig{
			Model:   cfg.Providers[provider.OpenAI].Model,
			BaseURL: cfg.Providers[provider.OpenAI].BaseURL,
			Timeout: cfg.Timeout,
		}),
		provider.NewClaudeProvider(provider.ClaudeConfig{
			Model:   cfg.Providers[provider.Claude].Model,
			BaseURL: cfg.Providers[provider.Claude].BaseURL,
			Timeout: cfg.Timeout,
		}),
		provider.NewGeminiProvider(provider.GeminiConfig{
			Model:    cfg.Providers[provider.Gemini].Model,
			Endpoint: cfg.Providers[provider.Gemini].BaseURL,
			Timeout:  cfg.Timeout,
		}),
	}
}

// wrapProvider adds throttling, retries and the translation cache around p
// as configured. Cache hits skip the throttle.
func (a *app) wrapProvider(p blocktl.Provider) blocktl.Provider {
	cfg := a.cfg
	if cfg.RequestsPerMinute > 0 {
		p = blocktl.NewRateLimitedProvider(p, blocktl.RateLimitConfig{
			RequestsPerMinute: cfg.RequestsPerMinute,
			OnWait: func(provider string, delay time.Duration) {
				a.logger.Debug("throttling provider request", "provider", provider, "delay", delay)
			},
		})
	}
	if cfg.Retries > 0 {
		retry := blocktl.DefaultRetryConfig()
		retry.MaxRetries = cfg.Retries
		id := p.ID()
		retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			a.logger.Warn("provider call failed, retrying", "provider", id, "attempt", attempt, "delay", delay, "error", err)
		}
		p = blocktl.NewRetryableProvider(p, retry)
	}
	if cfg.CacheTTL > 0 {
		p = cache.New(p, a.kv, cfg.CacheTTL, cache.WithLogger(a.logger))
	}
	return p
}

// openCredentials returns the keychain store with the environment as
// read-only fallback.
func openCredentials() *credential.Fallback {
	return credential.WithFallback(credential.NewKeyringStore(keyringService), credential.NewEnvStore())
}

// app is the fully wired engine for one command invocation.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	creds      credential.Store
	kv         store.KV
	docs       docstore.Store
	license    *license.Manager
	tr         *blocktl.Translator
	bt         *pipeline.BlockTranslator
	eval       *quality.Evaluator
	comparator *compare.Comparator
	review     *review.Service

	closers []func() error
}

func loadConfig(opts *globalOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return logger.New(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel), logger.Format(cfg.LogFormat))
}

// openApp loads configuration and wires every component. Callers must
// Close the app.
func openApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: newLogger(cmd, cfg), creds: openCredentials()}

	if err := a.openStores(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.license = license.NewManager(a.kv, a.creds,
		license.WithPresetDays(cfg.ExpiryPreset),
		license.WithLogger(a.logger),
	)
	if cleared, err := a.license.Enforce(ctx); err != nil {
		a.logger.Warn("expiry check failed", "error", err)
	} else if cleared {
		a.logger.Warn("translation expired; stored keys were deleted")
	}

	trOpts := []blocktl.TranslatorOption{
		blocktl.WithDefaultProvider(cfg.DefaultProvider),
		blocktl.WithSourceLang(cfg.SourceLang),
		blocktl.WithMaxTokens(cfg.MaxTokens),
		blocktl.WithCredentials(a.creds),
		blocktl.WithGate(a.license),
		blocktl.WithUsage(store.NewUsageCounter(a.kv, time.Local)),
		blocktl.WithLimits(cfg.Limits),
		blocktl.WithLogger(a.logger),
	}
	for _, p := range newProviders(cfg) {
		trOpts = append(trOpts, blocktl.WithProvider(a.wrapProvider(p)))
	}
	a.tr = blocktl.NewTranslator(trOpts...)

	approvals := store.NewApprovalStore(a.kv)
	a.bt = pipeline.NewBlockTranslator(a.tr, pipeline.WithDocuments(a.docs))
	a.eval = quality.NewEvaluator(a.tr, a.bt)
	a.comparator = compare.New(a.tr, a.bt, store.NewComparisonStore(a.kv, cfg.ComparisonTTL), approvals,
		compare.WithLogger(a.logger))
	a.review = review.NewService(a.tr, a.bt, a.docs, approvals)
	return a, nil
}

// openStores opens the document database and the key-value store: Redis
// when configured, otherwise a table in the document database.
func (a *app) openStores(ctx context.Context) error {
	docs, err := docstore.OpenSQLite(a.cfg.SQLitePath)
	if err != nil {
		return err
	}
	a.docs = docs
	a.closers = append(a.closers, docs.Close)

	if a.cfg.RedisURL == "" {
		kv, err := store.NewSQLiteKV(ctx, docs.DB())
		if err != nil {
			return err
		}
		if n, err := kv.Purge(ctx); err == nil && n > 0 {
			a.logger.Debug("purged expired entries", "count", n)
		}
		a.kv = kv
		return nil
	}

	kv, err := store.NewRedisKV(ctx, store.RedisConfig{URL: a.cfg.RedisURL, KeyPrefix: a.cfg.RedisKeyPrefix})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.kv = kv
	a.closers = append(a.closers, kv.Close)
	return nil
}

// Close releases every store.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// readInput returns the named file, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-3]) + "..."
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *score)
}
