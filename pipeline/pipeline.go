// Package pipeline translates block trees. Every block keeps its name,
// attributes that are not text, nesting and markup; only human-readable
// text in its HTML and in a fixed set of attributes is replaced.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/blocks"
	"github.com/ZaguanLabs/blocktl/processor"
)

// Documents loads stored documents. A missing document is reported as
// blocktl.ErrPostNotFound.
type Documents interface {
	Get(ctx context.Context, id string) (*blocktl.Document, error)
}

// DefaultAttributeKeys are the block attributes whose string values are
// translated.
var DefaultAttributeKeys = []string{"content", "citation", "value", "placeholder", "title", "caption", "alt"}

// DefaultTranslatableBlocks are the block types back-translated by
// RetranslateContent. Other blocks are passed through unchanged.
var DefaultTranslatableBlocks = []string{
	"core/paragraph",
	"core/heading",
	"core/list",
	"core/quote",
	"core/pullquote",
	"core/verse",
	"core/preformatted",
	"core/button",
	"core/cover",
	"core/media-text",
	"core/group",
	"core/columns",
	"core/column",
}

// BlockTranslator walks block trees and sends their text through a
// TextTranslator.
type BlockTranslator struct {
	tr           blocktl.TextTranslator
	back         blocktl.TextTranslator
	html         *processor.HTMLProcessor
	docs         Documents
	attrKeys     map[string]bool
	translatable map[string]bool
	logger       *slog.Logger
}

// Option configures a BlockTranslator.
type Option func(*BlockTranslator)

// WithDocuments sets the store used by TranslatePostBlocks.
func WithDocuments(d Documents) Option {
	return func(t *BlockTranslator) {
		t.docs = d
	}
}

// WithHTMLProcessor replaces the fragment walker.
func WithHTMLProcessor(p *processor.HTMLProcessor) Option {
	return func(t *BlockTranslator) {
		t.html = p
	}
}

// WithBackTranslator sets the translator used by RetranslateContent.
func WithBackTranslator(tr blocktl.TextTranslator) Option {
	return func(t *BlockTranslator) {
		t.back = tr
	}
}

// WithAttributeKeys replaces the translated attribute whitelist.
func WithAttributeKeys(keys ...string) Option {
	return func(t *BlockTranslator) {
		t.attrKeys = toSet(keys)
	}
}

// WithTranslatableBlocks replaces the block type whitelist.
func WithTranslatableBlocks(names ...string) Option {
	return func(t *BlockTranslator) {
		normalized := make([]string, len(names))
		for i, n := range names {
			normalized[i] = blocks.NormalizeName(n)
		}
		t.translatable = toSet(normalized)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *BlockTranslator) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewBlockTranslator creates a BlockTranslator around tr. When tr is a
// *blocktl.Translator its logger and backward view are reused.
func NewBlockTranslator(tr blocktl.TextTranslator, opts ...Option) *BlockTranslator {
	t := &BlockTranslator{
		tr:           tr,
		html:         processor.NewHTMLProcessor(),
		attrKeys:     toSet(DefaultAttributeKeys),
		translatable: toSet(DefaultTranslatableBlocks),
		logger:       slog.New(slog.DiscardHandler),
	}
	if full, ok := tr.(*blocktl.Translator); ok {
		t.back = full.Backward()
		t.logger = full.Logger()
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.back == nil {
		t.back = tr
	}
	return t
}

// IsTranslatable reports whether blocks of this type are back-translated.
func (t *BlockTranslator) IsTranslatable(name string) bool {
	return t.translatable[blocks.NormalizeName(name)]
}

// TranslateBlock translates a copy of b and its descendants. Any failure
// aborts the whole block; b itself is never modified.
func (t *BlockTranslator) TranslateBlock(ctx context.Context, b blocks.Block, targetLang, provider string) (*blocktl.BlockTranslation, error) {
	w := &walk{bt: t, tr: t.tr, lang: targetLang, provider: provider}
	out := b.Clone()
	if err := w.block(ctx, &out); err != nil {
		return nil, err
	}
	return &blocktl.BlockTranslation{Block: out, ChangeLog: w.log}, nil
}

// TranslatePostBlocks loads a document and translates its title and body.
func (t *BlockTranslator) TranslatePostBlocks(ctx context.Context, documentID, targetLang, provider string) (*blocktl.DocumentTranslationResult, error) {
	if t.docs == nil {
		return nil, blocktl.ErrPostNotFound
	}
	doc, err := t.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res, err := t.TranslateContent(ctx, doc.Content, doc.Title, targetLang, provider)
	if err != nil {
		return nil, err
	}
	res.DocumentID = doc.ID
	return res, nil
}

// TranslateContent translates a serialized document. The title is
// translated independently and a failure there only drops the translated
// title; any body failure aborts the run.
func (t *BlockTranslator) TranslateContent(ctx context.Context, content, title, targetLang, provider string) (*blocktl.DocumentTranslationResult, error) {
	list, err := t.parse(content)
	if err != nil {
		return nil, err
	}

	var translatedTitle string
	if strings.TrimSpace(title) != "" {
		unit, err := t.tr.Translate(ctx, title, targetLang, provider)
		if err != nil {
			t.logger.Warn("title translation failed", "provider", provider, "code", blocktl.CodeOf(err), "error", err)
		} else {
			translatedTitle = unit.TranslatedText
		}
	}

	w := &walk{bt: t, tr: t.tr, lang: targetLang, provider: provider}
	translated := blocks.CloneAll(list)
	for i := range translated {
		if err := w.block(ctx, &translated[i]); err != nil {
			return nil, err
		}
	}

	out, err := t.serialize(list, translated)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("document translated",
		"blocks", blocks.CountAll(list), "segments", len(w.log), "lang", targetLang)

	return &blocktl.DocumentTranslationResult{
		OriginalContent:   content,
		TranslatedContent: out,
		TranslatedTitle:   translatedTitle,
		Blocks:            translated,
		ChangeLog:         w.log,
		TargetLanguage:    targetLang,
		Provider:          t.providerID(provider),
	}, nil
}

// RetranslateContent back-translates an already translated document into
// sourceLang. Only top-level blocks of a translatable type are sent; the
// others are kept as they are. Back-translation never charges quota when
// the translator is a *blocktl.Translator.
func (t *BlockTranslator) RetranslateContent(ctx context.Context, translatedContent, sourceLang, provider string) (*blocktl.DocumentTranslationResult, error) {
	list, err := t.parse(translatedContent)
	if err != nil {
		return nil, err
	}
	if sourceLang == "" {
		sourceLang = blocktl.DefaultSourceLang
		if full, ok := t.tr.(*blocktl.Translator); ok {
			sourceLang = full.SourceLang()
		}
	}

	w := &walk{bt: t, tr: t.back, lang: sourceLang, provider: provider}
	back := blocks.CloneAll(list)
	for i := range back {
		if !t.IsTranslatable(back[i].Name) {
			continue
		}
		if err := w.block(ctx, &back[i]); err != nil {
			return nil, err
		}
	}

	out, err := t.serialize(list, back)
	if err != nil {
		return nil, err
	}

	return &blocktl.DocumentTranslationResult{
		OriginalContent:   translatedContent,
		TranslatedContent: out,
		Blocks:            back,
		ChangeLog:         w.log,
		TargetLanguage:    sourceLang,
		Provider:          t.providerID(provider),
	}, nil
}

// Extract lists the text a translation of content would send, in order,
// without calling any provider.
func (t *BlockTranslator) Extract(ctx context.Context, content string) ([]blocktl.ChangeLogEntry, error) {
	list, err := t.parse(content)
	if err != nil {
		return nil, err
	}
	w := &walk{bt: t, tr: echo{}}
	for i := range list {
		if err := w.block(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return w.log, nil
}

// parse reads content into a validated, non-empty block list.
func (t *BlockTranslator) parse(content string) ([]blocks.Block, error) {
	list, err := blocks.Parse(content)
	if err != nil {
		return nil, blocktl.WrapError(blocktl.CodeInvalidBlockStructure, "", err)
	}
	if !hasContent(list) {
		return nil, blocktl.ErrNoBlocks
	}
	if err := blocks.Validate(list); err != nil {
		return nil, blocktl.WrapError(blocktl.CodeInvalidBlockStructure, "", err)
	}
	return list, nil
}

// serialize renders translated and checks that it reads back with the
// same shape as original.
func (t *BlockTranslator) serialize(original, translated []blocks.Block) (string, error) {
	out := blocks.Serialize(translated)
	reparsed, err := blocks.Parse(out)
	if err != nil {
		return "", blocktl.WrapError(blocktl.CodeInvalidBlockStructure, "translated document does not parse", err)
	}
	if !blocks.SameShape(original, reparsed) {
		return "", blocktl.NewError(blocktl.CodeInvalidBlockStructure, "translated document changed block structure")
	}
	return out, nil
}

func (t *BlockTranslator) providerID(provider string) string {
	if provider != "" {
		return provider
	}
	if full, ok := t.tr.(*blocktl.Translator); ok {
		return full.DefaultProvider()
	}
	return ""
}

// hasContent reports whether list holds at least one typed block or
// non-blank freeform HTML.
func hasContent(list []blocks.Block) bool {
	for i := range list {
		if !list[i].IsFreeform() || strings.TrimSpace(list[i].InnerHTML) != "" {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
