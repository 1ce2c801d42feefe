package store

import (
	"context"
	"time"

	"github.com/ZaguanLabs/blocktl"
)

// DefaultComparisonTTL is how long a comparison stays reachable.
const DefaultComparisonTTL = 24 * time.Hour

// historyLimit caps the per-document list of comparison ids.
const historyLimit = 10

// ComparisonStore persists A/B comparisons as JSON with a fixed lifetime.
type ComparisonStore struct {
	kv  KV
	ttl time.Duration
}

// NewComparisonStore creates a store. A ttl <= 0 uses DefaultComparisonTTL.
func NewComparisonStore(kv KV, ttl time.Duration) *ComparisonStore {
	if ttl <= 0 {
		ttl = DefaultComparisonTTL
	}
	return &ComparisonStore{kv: kv, ttl: ttl}
}

func comparisonKey(id string) string { return "ab:" + id }

func historyKey(documentID string) string { return "ab:history:" + documentID }

// Create stores a new comparison and records it in the document's history.
func (s *ComparisonStore) Create(ctx context.Context, c *blocktl.Comparison) error {
	if err := s.Save(ctx, c); err != nil {
		return err
	}

	var ids []string
	if _, err := getJSON(ctx, s.kv, historyKey(c.DocumentID), &ids); err != nil {
		return err
	}
	ids = append([]string{c.ID}, ids...)
	if len(ids) > historyLimit {
		ids = ids[:historyLimit]
	}
	return setJSON(ctx, s.kv, historyKey(c.DocumentID), ids, s.ttl)
}

// Save writes c with a full lifetime.
func (s *ComparisonStore) Save(ctx context.Context, c *blocktl.Comparison) error {
	return setJSON(ctx, s.kv, comparisonKey(c.ID), c, s.ttl)
}

// Update rewrites c for the rest of the lifetime that started at
// c.CreatedAt. A comparison whose lifetime has ended at now is reported as
// not found.
func (s *ComparisonStore) Update(ctx context.Context, c *blocktl.Comparison, now time.Time) error {
	remaining := s.ttl
	if !c.CreatedAt.IsZero() {
		remaining = c.CreatedAt.Add(s.ttl).Sub(now)
	}
	if remaining <= 0 {
		return blocktl.ErrComparisonNotFound
	}
	return setJSON(ctx, s.kv, comparisonKey(c.ID), c, remaining)
}

// Get returns the comparison, or blocktl.ErrComparisonNotFound when it is
// unknown or expired.
func (s *ComparisonStore) Get(ctx context.Context, id string) (*blocktl.Comparison, error) {
	var c blocktl.Comparison
	ok, err := getJSON(ctx, s.kv, comparisonKey(id), &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, blocktl.ErrComparisonNotFound
	}
	return &c, nil
}

// History returns up to limit unexpired comparisons of a document, newest
// first.
func (s *ComparisonStore) History(ctx context.Context, documentID string, limit int) ([]*blocktl.Comparison, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	var ids []string
	if _, err := getJSON(ctx, s.kv, historyKey(documentID), &ids); err != nil {
		return nil, err
	}

	out := make([]*blocktl.Comparison, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		c, err := s.Get(ctx, id)
		if blocktl.CodeOf(err) == blocktl.CodeComparisonNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
