// Package docstore stores source documents and the localized pages created
// from approved translations.
package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ZaguanLabs/blocktl"
)

// Page is a stored document. Localized pages carry the id of their source
// document and their language slug.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	SourceID  string    `json:"source_id,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document returns the view used by the translation pipeline.
func (p *Page) Document() *blocktl.Document {
	return &blocktl.Document{ID: p.ID, Title: p.Title, Content: p.Content}
}

// Store is a page store. Get satisfies pipeline.Documents.
type Store interface {
	Get(ctx context.Context, id string) (*blocktl.Document, error)
	Page(ctx context.Context, id string) (*Page, error)
	// Save inserts or updates a page and reports whether it was created.
	Save(ctx context.Context, p *Page) (bool, error)
	// Localized lists the pages created from a source document.
	Localized(ctx context.Context, sourceID string) ([]*Page, error)
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]Page
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]Page), now: time.Now}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*blocktl.Document, error) {
	p, err := m.Page(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Document(), nil
}

// Page implements Store.
func (m *MemoryStore) Page(_ context.Context, id string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok {
		return nil, blocktl.ErrPostNotFound
	}
	return &p, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, p *Page) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	existing, ok := m.pages[p.ID]
	if ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.pages[p.ID] = *p
	return !ok, nil
}

// Localized implements Store.
func (m *MemoryStore) Localized(_ context.Context, sourceID string) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Page
	for _, p := range m.pages {
		if p.SourceID == sourceID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out, nil
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
