// Package config resolves process configuration for the blocktl command:
// built-in defaults, then an optional YAML file, then environment
// variables (including a .env file in the working directory).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds per-provider overrides.
type ProviderConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Config is the resolved configuration.
type Config struct {
	DefaultProvider string                    `yaml:"default_provider"`
	SourceLang      string                    `yaml:"source_lang"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	Limits          blocktl.Limits            `yaml:"limits"`
	Timeout         time.Duration             `yaml:"timeout"`
	MaxTokens       int                       `yaml:"max_tokens"`
	ComparisonTTL   time.Duration             `yaml:"comparison_ttl"`
	ExpiryPreset    int                       `yaml:"expiry_preset_days"`

	RedisURL       string `yaml:"redis_url"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`
	SQLitePath     string `yaml:"sqlite_path"`
	HTTPAddr       string `yaml:"http_addr"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`

	// RequestsPerMinute throttles each provider; 0 disables throttling.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// Retries is the number of retries for retryable provider failures.
	Retries int `yaml:"retries"`
	// CacheTTL keeps provider translations for reuse; 0 disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultProvider: "openai",
		SourceLang:      blocktl.DefaultSourceLang,
		Providers:       map[string]ProviderConfig{},
		Limits:          blocktl.DefaultLimits(),
		Timeout:         60 * time.Second,
		MaxTokens:       blocktl.DefaultMaxTokens,
		ComparisonTTL:   24 * time.Hour,
		ExpiryPreset:    30,
		RedisKeyPrefix:  "blocktl:",
		SQLitePath:      "blocktl.db",
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		Retries:         3,
	}
}

// Load resolves configuration in priority order: defaults, file, env. A
// missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DefaultProvider = envOrDefault("BLOCKTL_PROVIDER", cfg.DefaultProvider)
	cfg.SourceLang = envOrDefault("BLOCKTL_SOURCE_LANG", cfg.SourceLang)
	cfg.Limits.Daily = int64(envInt("BLOCKTL_DAILY_LIMIT", int(cfg.Limits.Daily)))
	cfg.Limits.Monthly = int64(envInt("BLOCKTL_MONTHLY_LIMIT", int(cfg.Limits.Monthly)))
	cfg.Timeout = envDuration("BLOCKTL_TIMEOUT", cfg.Timeout)
	cfg.MaxTokens = envInt("BLOCKTL_MAX_TOKENS", cfg.MaxTokens)
	cfg.ComparisonTTL = envDuration("BLOCKTL_COMPARISON_TTL", cfg.ComparisonTTL)
	cfg.ExpiryPreset = envInt("BLOCKTL_EXPIRY_PRESET_DAYS", cfg.ExpiryPreset)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.SQLitePath = envOrDefault("BLOCKTL_DB", cfg.SQLitePath)
	cfg.HTTPAddr = envOrDefault("BLOCKTL_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOrDefault("BLOCKTL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("BLOCKTL_LOG_FORMAT", cfg.LogFormat)
	cfg.RequestsPerMinute = envInt("BLOCKTL_RPM", cfg.RequestsPerMinute)
	cfg.CacheTTL = envDuration("BLOCKTL_CACHE_TTL", cfg.CacheTTL)

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for _, id := range []string{"openai", "claude", "gemini"} {
		pc := cfg.Providers[id]
		prefix := "BLOCKTL_" + strings.ToUpper(id)
		pc.Model = envOrDefault(prefix+"_MODEL", pc.Model)
		pc.BaseURL = envOrDefault(prefix+"_BASE_URL", pc.BaseURL)
		cfg.Providers[id] = pc
	}
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if c.DefaultProvider == "" {
		return errors.New("config: default_provider is empty")
	}
	if c.SourceLang == "" {
		return errors.New("config: source_lang is empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.ComparisonTTL <= 0 {
		return fmt.Errorf("config: comparison_ttl must be positive, got %s", c.ComparisonTTL)
	}
	return nil
}

// envOrDefault returns an env var when present, otherwise the fallback.
func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

// envInt parses an integer env var, keeping the fallback on empty or
// invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}
