// Package compare runs the same document through two providers side by side
// and lets an editor commit one of the results for approval.
package compare

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/quality"
	"github.com/ZaguanLabs/blocktl/store"
	"github.com/google/uuid"
)

// providersPerRun is the number of providers compared in one run.
const providersPerRun = 2

// Comparator runs A/B comparisons.
type Comparator struct {
	tr        *blocktl.Translator
	bt        *pipeline.BlockTranslator
	eval      *quality.Evaluator
	store     *store.ComparisonStore
	approvals *store.ApprovalStore
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

// Option is a functional option for configuring the Comparator.
type Option func(*Comparator)

// WithIDGenerator overrides the comparison id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Comparator) {
		c.newID = fn
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Comparator) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Comparator. The block translator must be built around tr so
// that provider keys, quota and the gate are shared.
func New(tr *blocktl.Translator, bt *pipeline.BlockTranslator, comparisons *store.ComparisonStore, approvals *store.ApprovalStore, opts ...Option) *Comparator {
	c := &Comparator{
		tr:        tr,
		bt:        bt,
		eval:      quality.NewEvaluator(tr, bt),
		store:     comparisons,
		approvals: approvals,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    tr.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run translates a stored document with the first two available providers.
// A failure of one provider is recorded in its result and does not stop
// the other.
func (c *Comparator) Run(ctx context.Context, documentID, targetLang string) (*blocktl.Comparison, error) {
	if err := c.tr.CheckAvailable(ctx); err != nil {
		return nil, err
	}

	available := c.tr.AvailableProviders()
	if len(available) < providersPerRun {
		c.logger.Debug("not enough providers for comparison", "available", len(available))
		return nil, blocktl.ErrInsufficientProviders
	}
	available = available[:providersPerRun]

	cmp := &blocktl.Comparison{
		ID:             c.newID(),
		DocumentID:     documentID,
		TargetLanguage: targetLang,
		Providers:      make([]string, 0, len(available)),
		Results:        make(map[string]blocktl.ProviderResult, len(available)),
		Status:         blocktl.StatusPending,
		CreatedAt:      c.now(),
	}

	for _, p := range available {
		cmp.Providers = append(cmp.Providers, p.ID)
		cmp.Results[p.ID] = c.runOne(ctx, documentID, targetLang, p)
	}

	if err := c.store.Create(ctx, cmp); err != nil {
		c.logger.Error("save comparison failed", "id", cmp.ID, "error", err)
		return nil, err
	}

	c.logger.Info("comparison created", "id", cmp.ID, "document", documentID, "lang", targetLang)
	return cmp, nil
}

func (c *Comparator) runOne(ctx context.Context, documentID, targetLang string, p blocktl.ProviderInfo) blocktl.ProviderResult {
	res := blocktl.ProviderResult{ProviderName: p.Name}

	translation, err := c.bt.TranslatePostBlocks(ctx, documentID, targetLang, p.ID)
	res.Timestamp = c.now()
	if err != nil {
		c.logger.Warn("comparison run failed", "provider", p.ID, "code", blocktl.CodeOf(err), "error", err)
		res.Error = err.Error()
		res.ErrorCode = blocktl.CodeOf(err)
		return res
	}

	ev := c.eval.Evaluate(ctx, translation, p.ID)
	score := ev.QualityScore
	res.Translation = translation
	res.BackTranslation = ev.BackTranslation
	res.BackTranslationError = ev.BackTranslationError
	res.QualityScore = &score
	return res
}

// Get returns a comparison or blocktl.ErrComparisonNotFound.
func (c *Comparator) Get(ctx context.Context, id string) (*blocktl.Comparison, error) {
	return c.store.Get(ctx, id)
}

// History returns the recent comparisons of a document, newest first.
func (c *Comparator) History(ctx context.Context, documentID string, limit int) ([]*blocktl.Comparison, error) {
	return c.store.History(ctx, documentID, limit)
}

// Select commits one provider's result as the document's pending approval
// and marks the comparison selected. Selecting a provider whose run failed
// is rejected as not found. A comparison can be selected once.
func (c *Comparator) Select(ctx context.Context, id, provider string) (*blocktl.PendingApproval, error) {
	cmp, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmp.Status == blocktl.StatusSelected {
		return nil, blocktl.NewError(blocktl.CodeAlreadySelected, "comparison already selected "+cmp.SelectedProvider)
	}

	res, ok := cmp.Results[provider]
	if !ok || res.Failed() || res.Translation == nil {
		return nil, blocktl.NewError(blocktl.CodeProviderResultNotFound, "no result for provider "+provider)
	}

	pending := &blocktl.PendingApproval{
		DocumentID:        cmp.DocumentID,
		TranslationResult: res.Translation,
		BackTranslation:   res.BackTranslation,
		Provider:          provider,
		QualityScore:      res.QualityScore,
		ComparisonID:      cmp.ID,
		SourceHash:        blocktl.HashText(res.Translation.OriginalContent),
		Timestamp:         c.now(),
	}
	if err := c.approvals.SetPending(ctx, pending); err != nil {
		return nil, err
	}

	cmp.Status = blocktl.StatusSelected
	cmp.SelectedProvider = provider
	if err := c.store.Update(ctx, cmp, c.now()); err != nil {
		return nil, err
	}

	c.logger.Info("comparison result selected", "id", id, "provider", provider)
	return pending, nil
}
