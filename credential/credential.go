// Package credential stores and resolves provider API keys.
//
// Keys live in the OS keychain (KeyringStore), the environment (EnvStore)
// or memory (MemoryStore). Chain combines them in lookup order; the CLI
// uses keychain first with environment fallback.
package credential

import (
	"errors"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/ZaguanLabs/blocktl"
	"github.com/zalando/go-keyring"
)

// ErrInvalidFormat is returned when a key does not look like a key of the
// provider it is saved for.
var ErrInvalidFormat = errors.New("credential: invalid key format")

// Store is a writable credential store.
type Store interface {
	blocktl.CredentialStore
	Set(provider, key string) error
	Delete(provider string) error
}

var formats = map[string]*regexp.Regexp{
	"openai": regexp.MustCompile(`^sk-(?:proj-)?[A-Za-z0-9_-]{20,}$`),
	"claude": regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]+$`),
}

// ValidateFormat checks the shape of a key. Providers without a known
// format only need a non-empty key.
func ValidateFormat(provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return blocktl.ErrNoAPIKey
	}
	if re, ok := formats[provider]; ok && !re.MatchString(key) {
		return ErrInvalidFormat
	}
	return nil
}

// Mask hides the middle of a key for display: the first 10 and last 5
// characters are kept, or only the first 5 for keys of 15 characters or
// fewer.
func Mask(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 15:
		return key[:min(5, len(key))] + "*****"
	}
	return key[:10] + "*****" + key[len(key)-5:]
}

// DeleteAll removes the keys of every listed provider. Missing keys are
// not an error.
func DeleteAll(s Store, providers ...string) error {
	var errs []error
	for _, p := range providers {
		if err := s.Delete(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KeyringStore keeps keys in the OS keychain, one account per provider.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store under the given keychain service name
// ("blocktl" when empty).
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = "blocktl"
	}
	return &KeyringStore{service: service}
}

func account(provider string) string { return provider + "-api-key" }

// Key implements blocktl.CredentialStore.
func (k *KeyringStore) Key(provider string) (string, bool) {
	key, err := keyring.Get(k.service, account(provider))
	if err != nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

// Set saves a key.
func (k *KeyringStore) Set(provider, key string) error {
	return keyring.Set(k.service, account(provider), strings.TrimSpace(key))
}

// Delete removes a key.
func (k *KeyringStore) Delete(provider string) error {
	err := keyring.Delete(k.service, account(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// EnvVars maps provider ids to the environment variables EnvStore reads.
var EnvVars = map[string]string{
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// EnvStore reads keys from environment variables. It is read-only.
type EnvStore struct {
	lookup func(string) string
}

// NewEnvStore creates a store over the process environment.
func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.Getenv}
}

// Key implements blocktl.CredentialStore.
func (e *EnvStore) Key(provider string) (string, bool) {
	name, ok := EnvVars[provider]
	if !ok {
		return "", false
	}
	key := strings.TrimSpace(e.lookup(name))
	return key, key != ""
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewMemoryStore creates a store seeded with a copy of keys.
func NewMemoryStore(keys map[string]string) *MemoryStore {
	m := &MemoryStore{keys: make(map[string]string, len(keys))}
	for p, k := range keys {
		m.keys[p] = k
	}
	return m
}

// Key implements blocktl.CredentialStore.
func (m *MemoryStore) Key(provider string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.keys[provider]
	return key, ok && key != ""
}

// Set saves a key.
func (m *MemoryStore) Set(provider, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[provider] = strings.TrimSpace(key)
	return nil
}

// Delete removes a key.
func (m *MemoryStore) Delete(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, provider)
	return nil
}

// Chain looks a key up in each store in order and returns the first hit.
type Chain []blocktl.CredentialStore

// Key implements blocktl.CredentialStore.
func (c Chain) Key(provider string) (string, bool) {
	for _, s := range c {
		if key, ok := s.Key(provider); ok {
			return key, true
		}
	}
	return "", false
}

// Fallback is a writable Store whose lookups fall through to read-only
// stores. Set and Delete only touch the writable store.
type Fallback struct {
	Store
	Read Chain
}

// WithFallback wraps s so that keys missing from it are looked up in read.
func WithFallback(s Store, read ...blocktl.CredentialStore) *Fallback {
	return &Fallback{Store: s, Read: read}
}

// Key implements blocktl.CredentialStore.
func (f *Fallback) Key(provider string) (string, bool) {
	if key, ok := f.Store.Key(provider); ok {
		return key, true
	}
	return f.Read.Key(provider)
}

// Verify implementations
var (
	_ Store                   = (*KeyringStore)(nil)
	_ Store                   = (*MemoryStore)(nil)
	_ Store                   = (*Fallback)(nil)
	_ blocktl.CredentialStore = (*EnvStore)(nil)
	_ blocktl.CredentialStore = Chain(nil)
)
