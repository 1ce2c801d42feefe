package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/blocktl"
)

// MockProvider is an offline provider for tests, demos and dry runs.
type MockProvider struct {
	id           string
	Translations map[string]string // Map of source text to translation
	Err          error             // Returned by every call when set

	mu          sync.Mutex
	callCount   int
	lastRequest *blocktl.Request
}

// NewMockProvider creates a mock provider registered under id with a few
// default translations.
func NewMockProvider(id string) *MockProvider {
	if id == "" {
		id = "mock"
	}
	return &MockProvider{
		id: id,
		Translations: map[string]string{
			"こんにちは":       "Hello",
			"Hello":       "こんにちは",
			"世界":          "World",
			"ようこそ":        "Welcome",
			"こんにちは、世界！":   "Hello, world!",
			"Hello, world!": "こんにちは、世界！",
		},
	}
}

// ID implements blocktl.Provider.
func (m *MockProvider) ID() string { return m.id }

// Name implements blocktl.Provider.
func (m *MockProvider) Name() string { return "Mock (" + m.id + ")" }

// Translate returns the mapped translation or the text in brackets.
func (m *MockProvider) Translate(ctx context.Context, req blocktl.Request) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if translation, ok := m.Translations[req.Text]; ok {
		return translation, nil
	}
	return fmt.Sprintf("[%s]", req.Text), nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *blocktl.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockProvider implements Provider
var _ blocktl.Provider = (*MockProvider)(nil)
