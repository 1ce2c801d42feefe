package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/docstore"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/provider"
	"github.com/ZaguanLabs/blocktl/store"
)

const paragraphDoc = "<!-- wp:paragraph -->\n<p>こんにちは</p>\n<!-- /wp:paragraph -->"

type fixture struct {
	svc       *Service
	docs      *docstore.MemoryStore
	approvals *store.ApprovalStore
	mock      *provider.MockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	mock := provider.NewMockProvider(provider.OpenAI)
	tr := blocktl.NewTranslator(
		blocktl.WithProvider(mock),
		blocktl.WithCredentials(credential.NewMemoryStore(map[string]string{provider.OpenAI: "sk-test"})),
	)

	docs := docstore.NewMemoryStore()
	if _, err := docs.Save(ctx, &docstore.Page{ID: "42", Title: "ようこそ", Content: paragraphDoc}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	approvals := store.NewApprovalStore(store.NewMemoryKV())
	bt := pipeline.NewBlockTranslator(tr, pipeline.WithDocuments(docs))
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(tr, bt, docs, approvals, WithClock(func() time.Time { return fixed }))

	return &fixture{svc: svc, docs: docs, approvals: approvals, mock: mock}
}

func TestTranslate_StoresPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.Translate(ctx, "42", "en", "")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if pending.Provider != provider.OpenAI {
		t.Errorf("Expected default provider, got %q", pending.Provider)
	}
	if pending.QualityScore == nil || *pending.QualityScore != 80 {
		t.Errorf("Expected score 80, got %v", pending.QualityScore)
	}
	if pending.TranslationResult.TranslatedTitle != "Welcome" {
		t.Errorf("Expected translated title, got %q", pending.TranslationResult.TranslatedTitle)
	}
	if pending.SourceHash != blocktl.HashText(paragraphDoc) {
		t.Error("Source hash should fingerprint the original content")
	}

	stored, err := f.svc.Pending(ctx, "42")
	if err != nil || stored.TranslationResult.TranslatedContent != pending.TranslationResult.TranslatedContent {
		t.Errorf("Pending should be stored, got %+v %v", stored, err)
	}
}

func TestTranslate_Failure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Translate(ctx, "404", "en", ""); !errors.Is(err, blocktl.ErrPostNotFound) {
		t.Errorf("Expected post_not_found, got %v", err)
	}

	f.mock.Err = errors.New("unreachable")
	if _, err := f.svc.Translate(ctx, "42", "en", ""); !errors.Is(err, blocktl.ErrAPIConnectionFailed) {
		t.Errorf("Expected api_connection_failed, got %v", err)
	}
	if _, err := f.svc.Pending(ctx, "42"); !errors.Is(err, blocktl.ErrPendingNotFound) {
		t.Error("A failed run should not leave a pending approval")
	}
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Approve(ctx, "42"); !errors.Is(err, blocktl.ErrPendingNotFound) {
		t.Errorf("Expected pending_not_found, got %v", err)
	}

	if _, err := f.svc.Translate(ctx, "42", "en", ""); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	page, err := f.svc.Approve(ctx, "42")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if page.ID != "42-en" || page.Title != "Welcome" || page.SourceID != "42" {
		t.Errorf("Unexpected page %+v", page)
	}
	if page.Content != "<!-- wp:paragraph -->\n<p>Hello</p>\n<!-- /wp:paragraph -->" {
		t.Errorf("Unexpected page content %q", page.Content)
	}

	if _, err := f.svc.Pending(ctx, "42"); !errors.Is(err, blocktl.ErrPendingNotFound) {
		t.Error("Pending slot should be cleared after approval")
	}
	if approved, err := f.approvals.Approved(ctx, "42", "en"); err != nil || approved.Provider != provider.OpenAI {
		t.Errorf("Approved payload should be recorded, got %+v %v", approved, err)
	}
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.Discard(ctx, "42"); !errors.Is(err, blocktl.ErrPendingNotFound) {
		t.Errorf("Expected pending_not_found, got %v", err)
	}
	_, _ = f.svc.Translate(ctx, "42", "en", "")
	if err := f.svc.Discard(ctx, "42"); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if _, err := f.svc.Pending(ctx, "42"); !errors.Is(err, blocktl.ErrPendingNotFound) {
		t.Error("Pending slot should be empty after discard")
	}
}

func TestStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, _ := f.svc.Translate(ctx, "42", "en", "")
	if stale, _ := f.svc.Stale(ctx, pending); stale {
		t.Error("Unchanged source should not be stale")
	}

	_, _ = f.docs.Save(ctx, &docstore.Page{ID: "42", Title: "ようこそ", Content: paragraphDoc + "\n"})
	if stale, _ := f.svc.Stale(ctx, pending); stale {
		t.Error("Whitespace-only edits should not be stale")
	}

	_, _ = f.docs.Save(ctx, &docstore.Page{ID: "42", Title: "ようこそ", Content: "<!-- wp:paragraph -->\n<p>世界</p>\n<!-- /wp:paragraph -->"})
	if stale, _ := f.svc.Stale(ctx, pending); !stale {
		t.Error("Edited source should be stale")
	}
}
