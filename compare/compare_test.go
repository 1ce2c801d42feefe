package compare

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/provider"
	"github.com/ZaguanLabs/blocktl/store"
)

const paragraphDoc = "<!-- wp:paragraph -->\n<p>こんにちは</p>\n<!-- /wp:paragraph -->"

type docs map[string]blocktl.Document

func (d docs) Get(_ context.Context, id string) (*blocktl.Document, error) {
	doc, ok := d[id]
	if !ok {
		return nil, blocktl.ErrPostNotFound
	}
	return &doc, nil
}

type gate bool

func (g gate) Available(context.Context) bool { return bool(g) }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	cmp       *Comparator
	approvals *store.ApprovalStore
	providers []*provider.MockProvider
	clock     *clock
}

func newFixture(t *testing.T, open bool, keyed ...string) *fixture {
	t.Helper()

	mocks := []*provider.MockProvider{
		provider.NewMockProvider("alpha"),
		provider.NewMockProvider("beta"),
		provider.NewMockProvider("gamma"),
	}
	keys := credential.NewMemoryStore(nil)
	for _, id := range keyed {
		keys.Set(id, "k-"+id)
	}

	opts := []blocktl.TranslatorOption{
		blocktl.WithCredentials(keys),
		blocktl.WithGate(gate(open)),
		blocktl.WithDefaultProvider("alpha"),
	}
	for _, m := range mocks {
		opts = append(opts, blocktl.WithProvider(m))
	}
	tr := blocktl.NewTranslator(opts...)

	bt := pipeline.NewBlockTranslator(tr, pipeline.WithDocuments(docs{
		"42": {ID: "42", Title: "こんにちは", Content: paragraphDoc},
	}))

	clk := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	kv := store.NewMemoryKV().WithClock(clk.now)
	approvals := store.NewApprovalStore(kv)
	c := New(tr, bt, store.NewComparisonStore(kv, 0), approvals,
		WithIDGenerator(func() string { return "cmp-1" }),
		WithClock(clk.now),
	)
	return &fixture{cmp: c, approvals: approvals, providers: mocks, clock: clk}
}

func TestRun_FirstTwoProviders(t *testing.T) {
	f := newFixture(t, true, "alpha", "beta", "gamma")

	cmp, err := f.cmp.Run(context.Background(), "42", "en")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cmp.ID != "cmp-1" || cmp.Status != blocktl.StatusPending {
		t.Errorf("Unexpected comparison header %+v", cmp)
	}
	if len(cmp.Results) != 2 || cmp.Providers[0] != "alpha" || cmp.Providers[1] != "beta" {
		t.Fatalf("Expected alpha and beta, got %v", cmp.Providers)
	}
	if f.providers[2].CallCount() != 0 {
		t.Error("Third provider should never be called")
	}

	res := cmp.Results["alpha"]
	if res.Failed() {
		t.Fatalf("alpha should succeed, got %s", res.Error)
	}
	if res.Translation.TranslatedContent != "<!-- wp:paragraph -->\n<p>Hello</p>\n<!-- /wp:paragraph -->" {
		t.Errorf("Unexpected translation %q", res.Translation.TranslatedContent)
	}
	if res.Translation.TranslatedTitle != "Hello" {
		t.Errorf("Expected translated title, got %q", res.Translation.TranslatedTitle)
	}
	if res.QualityScore == nil || *res.QualityScore != 80 {
		t.Errorf("Expected score 80, got %v", res.QualityScore)
	}
	if res.BackTranslation != paragraphDoc {
		t.Errorf("Unexpected back-translation %q", res.BackTranslation)
	}

	stored, err := f.cmp.Get(context.Background(), "cmp-1")
	if err != nil || len(stored.Results) != 2 {
		t.Errorf("Comparison should be stored, got %+v %v", stored, err)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	f := newFixture(t, true, "alpha", "beta")
	f.providers[0].Err = errors.New("connection refused")

	cmp, err := f.cmp.Run(context.Background(), "42", "en")
	if err != nil {
		t.Fatalf("Run should tolerate one provider failing: %v", err)
	}

	failed := cmp.Results["alpha"]
	if !failed.Failed() || failed.ErrorCode != blocktl.CodeAPIConnectionFailed {
		t.Errorf("Expected alpha failure recorded, got %+v", failed)
	}
	if failed.Translation != nil || failed.QualityScore != nil {
		t.Error("Failed result should carry no translation or score")
	}

	ok := cmp.Results["beta"]
	if ok.Failed() || ok.Translation == nil {
		t.Errorf("beta should succeed, got %+v", ok)
	}
}

func TestRun_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		open  bool
		keyed []string
		want  error
	}{
		{"gate closed", false, []string{"alpha", "beta"}, blocktl.ErrFeatureUnavailable},
		{"one provider", true, []string{"alpha"}, blocktl.ErrInsufficientProviders},
		{"no providers", true, nil, blocktl.ErrInsufficientProviders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.open, tt.keyed...)
			_, err := f.cmp.Run(context.Background(), "42", "en")
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			for _, m := range f.providers {
				if m.CallCount() != 0 {
					t.Errorf("%s should not be called", m.ID())
				}
			}
		})
	}
}

func TestRun_MissingDocument(t *testing.T) {
	f := newFixture(t, true, "alpha", "beta")

	cmp, err := f.cmp.Run(context.Background(), "missing", "en")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for id, res := range cmp.Results {
		if res.ErrorCode != blocktl.CodePostNotFound {
			t.Errorf("%s: expected post_not_found, got %q", id, res.ErrorCode)
		}
	}
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "alpha", "beta")
	f.providers[1].Err = errors.New("timeout")

	if _, err := f.cmp.Run(ctx, "42", "en"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := f.cmp.Select(ctx, "unknown", "alpha"); !errors.Is(err, blocktl.ErrComparisonNotFound) {
		t.Errorf("Expected comparison_not_found, got %v", err)
	}
	if _, err := f.cmp.Select(ctx, "cmp-1", "gamma"); !errors.Is(err, blocktl.ErrProviderResultNotFound) {
		t.Errorf("Expected provider_result_not_found, got %v", err)
	}
	if _, err := f.cmp.Select(ctx, "cmp-1", "beta"); !errors.Is(err, blocktl.ErrProviderResultNotFound) {
		t.Errorf("Failed result should not be selectable, got %v", err)
	}

	pending, err := f.cmp.Select(ctx, "cmp-1", "alpha")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if pending.ComparisonID != "cmp-1" || pending.Provider != "alpha" || pending.DocumentID != "42" {
		t.Errorf("Unexpected pending %+v", pending)
	}

	stored, err := f.approvals.Pending(ctx, "42")
	if err != nil || stored.TranslationResult == nil || stored.QualityScore == nil {
		t.Fatalf("Pending approval should be stored, got %+v %v", stored, err)
	}
	if stored.SourceHash != blocktl.HashText(paragraphDoc) {
		t.Errorf("Pending approval should carry the source hash, got %q", stored.SourceHash)
	}

	cmp, _ := f.cmp.Get(ctx, "cmp-1")
	if cmp.Status != blocktl.StatusSelected || cmp.SelectedProvider != "alpha" {
		t.Errorf("Comparison should be flagged selected, got %s %s", cmp.Status, cmp.SelectedProvider)
	}
}

func TestSelect_Once(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "alpha", "beta")
	if _, err := f.cmp.Run(ctx, "42", "en"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := f.cmp.Select(ctx, "cmp-1", "alpha"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if _, err := f.cmp.Select(ctx, "cmp-1", "beta"); !errors.Is(err, blocktl.ErrAlreadySelected) {
		t.Errorf("Expected comparison_already_selected, got %v", err)
	}
	cmp, _ := f.cmp.Get(ctx, "cmp-1")
	if cmp.SelectedProvider != "alpha" {
		t.Errorf("Selection should not change, got %s", cmp.SelectedProvider)
	}
	pending, _ := f.approvals.Pending(ctx, "42")
	if pending.Provider != "alpha" {
		t.Errorf("Pending approval should not change, got %s", pending.Provider)
	}
}

func TestSelect_KeepsLifetime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "alpha", "beta")
	if _, err := f.cmp.Run(ctx, "42", "en"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	f.clock.advance(23 * time.Hour)
	if _, err := f.cmp.Select(ctx, "cmp-1", "alpha"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	f.clock.advance(2 * time.Hour)
	if _, err := f.cmp.Get(ctx, "cmp-1"); !errors.Is(err, blocktl.ErrComparisonNotFound) {
		t.Errorf("Comparison should expire a day after creation, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "alpha", "beta")
	if _, err := f.cmp.Run(ctx, "42", "en"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	history, err := f.cmp.History(ctx, "42", 5)
	if err != nil || len(history) != 1 || history[0].ID != "cmp-1" {
		t.Errorf("Unexpected history %v %v", history, err)
	}
}
