// Package review is the single-provider approval workflow: translate a
// document, score it, park it as the document's pending approval and
// publish it as a localized page once approved.
package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/docstore"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/quality"
	"github.com/ZaguanLabs/blocktl/store"
)

// Service runs the review workflow.
type Service struct {
	bt        *pipeline.BlockTranslator
	eval      *quality.Evaluator
	docs      docstore.Store
	approvals *store.ApprovalStore
	publisher *docstore.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. bt must read documents from docs.
func NewService(tr *blocktl.Translator, bt *pipeline.BlockTranslator, docs docstore.Store, approvals *store.ApprovalStore, opts ...Option) *Service {
	s := &Service{
		bt:        bt,
		eval:      quality.NewEvaluator(tr, bt),
		docs:      docs,
		approvals: approvals,
		publisher: docstore.NewPublisher(docs, tr.Logger()),
		now:       time.Now,
		logger:    tr.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate translates a document with one provider, scores it and stores
// the result as the document's pending approval, replacing any previous
// one.
func (s *Service) Translate(ctx context.Context, documentID, targetLang, provider string) (*blocktl.PendingApproval, error) {
	res, err := s.bt.TranslatePostBlocks(ctx, documentID, targetLang, provider)
	if err != nil {
		return nil, err
	}

	ev := s.eval.Evaluate(ctx, res, res.Provider)
	score := ev.QualityScore
	pending := &blocktl.PendingApproval{
		DocumentID:        documentID,
		TranslationResult: res,
		BackTranslation:   ev.BackTranslation,
		Provider:          res.Provider,
		QualityScore:      &score,
		SourceHash:        blocktl.HashText(res.OriginalContent),
		Timestamp:         s.now(),
	}
	if err := s.approvals.SetPending(ctx, pending); err != nil {
		return nil, err
	}

	s.logger.Info("translation pending approval",
		"document", documentID, "lang", targetLang, "provider", res.Provider, "score", score)
	return pending, nil
}

// Pending returns the document's pending approval.
func (s *Service) Pending(ctx context.Context, documentID string) (*blocktl.PendingApproval, error) {
	return s.approvals.Pending(ctx, documentID)
}

// Discard drops the document's pending approval.
func (s *Service) Discard(ctx context.Context, documentID string) error {
	if _, err := s.approvals.Pending(ctx, documentID); err != nil {
		return err
	}
	return s.approvals.DeletePending(ctx, documentID)
}

// Approve publishes the pending translation as a localized page, records
// it as the approved translation for its language and clears the pending
// slot.
func (s *Service) Approve(ctx context.Context, documentID string) (*docstore.Page, error) {
	pending, err := s.approvals.Pending(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if stale, err := s.Stale(ctx, pending); err == nil && stale {
		s.logger.Warn("source changed since translation", "document", documentID)
	}

	page, err := s.publisher.Publish(ctx, pending)
	if err != nil {
		return nil, err
	}
	if err := s.approvals.SetApproved(ctx, pending); err != nil {
		return nil, err
	}
	if err := s.approvals.DeletePending(ctx, documentID); err != nil {
		return nil, err
	}

	s.logger.Info("translation approved", "document", documentID, "page", page.ID)
	return page, nil
}

// Stale reports whether the source document changed after the pending
// translation was made. Approvals without a source hash are never stale.
func (s *Service) Stale(ctx context.Context, pending *blocktl.PendingApproval) (bool, error) {
	if pending.SourceHash == "" {
		return false, nil
	}
	doc, err := s.docs.Get(ctx, pending.DocumentID)
	if err != nil {
		return false, err
	}
	return blocktl.HashText(doc.Content) != pending.SourceHash, nil
}
