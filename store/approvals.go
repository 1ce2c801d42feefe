package store

import (
	"context"

	"github.com/ZaguanLabs/blocktl"
)

// ApprovalStore keeps the single pending approval per document and the
// last approved payload per document and language.
type ApprovalStore struct {
	kv KV
}

// NewApprovalStore creates an ApprovalStore.
func NewApprovalStore(kv KV) *ApprovalStore {
	return &ApprovalStore{kv: kv}
}

func pendingKey(documentID string) string { return "pending:" + documentID }

func approvedKey(documentID, lang string) string {
	return "approved:" + documentID + ":" + blocktl.NormalizeLanguage(lang)
}

// SetPending replaces the document's pending approval.
func (s *ApprovalStore) SetPending(ctx context.Context, p *blocktl.PendingApproval) error {
	return setJSON(ctx, s.kv, pendingKey(p.DocumentID), p, 0)
}

// Pending returns the document's pending approval or
// blocktl.ErrPendingNotFound.
func (s *ApprovalStore) Pending(ctx context.Context, documentID string) (*blocktl.PendingApproval, error) {
	var p blocktl.PendingApproval
	ok, err := getJSON(ctx, s.kv, pendingKey(documentID), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, blocktl.ErrPendingNotFound
	}
	return &p, nil
}

// DeletePending clears the document's pending slot.
func (s *ApprovalStore) DeletePending(ctx context.Context, documentID string) error {
	if err := s.kv.Delete(ctx, pendingKey(documentID)); err != nil {
		return blocktl.WrapError(blocktl.CodeStorage, "delete pending", err)
	}
	return nil
}

// SetApproved records an approved payload for its target language.
func (s *ApprovalStore) SetApproved(ctx context.Context, p *blocktl.PendingApproval) error {
	lang := ""
	if p.TranslationResult != nil {
		lang = p.TranslationResult.TargetLanguage
	}
	return setJSON(ctx, s.kv, approvedKey(p.DocumentID, lang), p, 0)
}

// Approved returns the approved payload for a document and language or
// blocktl.ErrPendingNotFound.
func (s *ApprovalStore) Approved(ctx context.Context, documentID, lang string) (*blocktl.PendingApproval, error) {
	var p blocktl.PendingApproval
	ok, err := getJSON(ctx, s.kv, approvedKey(documentID, lang), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, blocktl.ErrPendingNotFound
	}
	return &p, nil
}
