package credential

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/blocktl"
	"github.com/zalando/go-keyring"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		want     error
	}{
		{"openai", "sk-" + strings.Repeat("a", 24), nil},
		{"openai", "sk-proj-" + strings.Repeat("B9_-", 6), nil},
		{"openai", "sk-short", ErrInvalidFormat},
		{"openai", "pk-" + strings.Repeat("a", 24), ErrInvalidFormat},
		{"claude", "sk-ant-api03-abc_DEF", nil},
		{"claude", "sk-" + strings.Repeat("a", 24), ErrInvalidFormat},
		{"gemini", "AIzaSyAnything", nil},
		{"openai", "   ", blocktl.ErrNoAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.key, func(t *testing.T) {
			err := ValidateFormat(tt.provider, tt.key)
			if !errors.Is(err, tt.want) && !(err == nil && tt.want == nil) {
				t.Errorf("ValidateFormat(%q, %q) = %v, want %v", tt.provider, tt.key, err, tt.want)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"abc", "abc*****"},
		{"sk-ant-12345678", "sk-an*****"},
		{"sk-proj-abcdefghijklmnop", "sk-proj-ab*****lmnop"},
	}

	for _, tt := range tests {
		if got := Mask(tt.key); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStore("blocktl-test")

	if _, ok := s.Key("openai"); ok {
		t.Error("Expected no key before Set")
	}

	if err := s.Set("openai", "  sk-value  "); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	key, ok := s.Key("openai")
	if !ok || key != "sk-value" {
		t.Errorf("Expected trimmed key, got %q %v", key, ok)
	}

	if err := s.Delete("openai"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("openai"); err != nil {
		t.Errorf("Deleting a missing key should succeed, got %v", err)
	}
	if _, ok := s.Key("openai"); ok {
		t.Error("Expected no key after Delete")
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant-env ")
	t.Setenv("OPENAI_API_KEY", "")

	s := NewEnvStore()
	if key, ok := s.Key("claude"); !ok || key != "sk-ant-env" {
		t.Errorf("Expected claude key from env, got %q %v", key, ok)
	}
	if _, ok := s.Key("openai"); ok {
		t.Error("Empty env var should not count as a key")
	}
	if _, ok := s.Key("unknown"); ok {
		t.Error("Unknown provider should have no key")
	}
}

func TestChain(t *testing.T) {
	primary := NewMemoryStore(map[string]string{"openai": "primary"})
	fallback := NewMemoryStore(map[string]string{"openai": "fallback", "claude": "fallback"})
	c := Chain{primary, fallback}

	if key, _ := c.Key("openai"); key != "primary" {
		t.Errorf("Expected primary to win, got %q", key)
	}
	if key, _ := c.Key("claude"); key != "fallback" {
		t.Errorf("Expected fallback, got %q", key)
	}
	if _, ok := c.Key("gemini"); ok {
		t.Error("Expected miss")
	}
}

func TestDeleteAll(t *testing.T) {
	s := NewMemoryStore(map[string]string{"openai": "a", "claude": "b", "gemini": "c"})

	if err := DeleteAll(s, "openai", "claude", "missing"); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if _, ok := s.Key("openai"); ok {
		t.Error("openai key should be deleted")
	}
	if _, ok := s.Key("gemini"); !ok {
		t.Error("gemini key should be kept")
	}
}

func TestFallback(t *testing.T) {
	env := NewMemoryStore(map[string]string{"claude": "sk-ant-env"})
	f := WithFallback(NewMemoryStore(nil), env)

	if key, ok := f.Key("claude"); !ok || key != "sk-ant-env" {
		t.Errorf("Expected fallback key, got %q %v", key, ok)
	}
	if err := f.Set("claude", "sk-ant-saved"); err != nil {
		t.Fatal(err)
	}
	if key, _ := f.Key("claude"); key != "sk-ant-saved" {
		t.Errorf("Writable store should win, got %q", key)
	}

	if err := f.Delete("claude"); err != nil {
		t.Fatal(err)
	}
	if key, _ := env.Key("claude"); key != "sk-ant-env" {
		t.Error("Delete must not touch read-only stores")
	}
}
