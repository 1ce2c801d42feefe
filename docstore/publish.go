package docstore

import (
	"context"
	"log/slog"

	"github.com/ZaguanLabs/blocktl"
)

// Publisher turns approved translations into localized pages.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing to s.
func NewPublisher(s Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{store: s, logger: logger}
}

// Publish creates or updates the localized page for an approved
// translation. Without a translated title the source title plus a language
// suffix is used.
func (p *Publisher) Publish(ctx context.Context, approval *blocktl.PendingApproval) (*Page, error) {
	res := approval.TranslationResult
	if res == nil {
		return nil, blocktl.ErrPendingNotFound
	}

	source, err := p.store.Page(ctx, approval.DocumentID)
	if err != nil {
		return nil, err
	}

	lang := res.TargetLanguage
	title := res.TranslatedTitle
	if title == "" {
		title = source.Title + blocktl.TitleSuffix(lang)
	}

	page := &Page{
		ID:       blocktl.LocalizedID(source.ID, lang),
		Title:    title,
		Content:  res.TranslatedContent,
		SourceID: source.ID,
		Language: blocktl.NormalizeLanguage(lang),
	}
	created, err := p.store.Save(ctx, page)
	if err != nil {
		return nil, err
	}

	p.logger.Info("localized page published", "id", page.ID, "source", source.ID, "lang", page.Language, "created", created)
	return page, nil
}
