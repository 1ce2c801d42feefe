package pipeline

import (
	"context"
	"strings"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/blocks"
	"github.com/ZaguanLabs/blocktl/processor"
)

// walk holds the state of one translation pass over a block tree.
type walk struct {
	bt       *BlockTranslator
	tr       blocktl.TextTranslator
	lang     string
	provider string
	log      []blocktl.ChangeLogEntry
}

// block translates b in place, pre-order: its HTML, then its attributes,
// then its children. The first failure stops the walk.
func (w *walk) block(ctx context.Context, b *blocks.Block) error {
	if err := w.html(ctx, b); err != nil {
		return err
	}
	if err := w.attrs(ctx, b); err != nil {
		return err
	}
	for i := range b.InnerBlocks {
		if err := w.block(ctx, &b.InnerBlocks[i]); err != nil {
			return err
		}
	}
	return nil
}

// html translates the markup of b. A leaf's InnerHTML is the source of
// its serialized content. A parent's markup is split into the chunks
// around its children; each chunk is translated on its own and InnerHTML
// is rebuilt from them so both stay consistent.
func (w *walk) html(ctx context.Context, b *blocks.Block) error {
	fn := w.segment(b.Name)

	if b.IsLeaf() {
		if b.InnerHTML == "" {
			return nil
		}
		out, err := w.bt.html.TranslateTextNodes(ctx, b.InnerHTML, fn)
		if err != nil {
			return err
		}
		if out != b.InnerHTML {
			b.InnerHTML = out
			b.SyncInnerContent()
		}
		return nil
	}

	var rebuilt strings.Builder
	for i, chunk := range b.InnerContent {
		if chunk == nil {
			continue
		}
		out, err := w.bt.html.TranslateTextNodes(ctx, *chunk, fn)
		if err != nil {
			return err
		}
		b.InnerContent[i] = &out
		rebuilt.WriteString(out)
	}
	b.InnerHTML = rebuilt.String()
	return nil
}

// attrs translates whitelisted string attributes, in document order.
func (w *walk) attrs(ctx context.Context, b *blocks.Block) error {
	for _, key := range b.Attrs.Keys() {
		if !w.bt.attrKeys[key] {
			continue
		}
		value, ok := b.Attrs.String(key)
		if !ok || processor.ShouldSkip(value) {
			continue
		}
		unit, err := w.tr.Translate(ctx, value, w.lang, w.provider)
		if err != nil {
			return err
		}
		b.Attrs.SetString(key, unit.TranslatedText)
		w.log = append(w.log, blocktl.ChangeLogEntry{
			Original:   value,
			Translated: unit.TranslatedText,
			BlockType:  b.Name,
			Attribute:  key,
		})
	}
	return nil
}

// segment adapts the TextTranslator to the fragment walker and records a
// change-log entry per replaced value.
func (w *walk) segment(blockType string) processor.TranslateFunc {
	return func(ctx context.Context, seg processor.Segment) (string, error) {
		unit, err := w.tr.Translate(ctx, seg.Text, w.lang, w.provider)
		if err != nil {
			return "", err
		}
		entry := blocktl.ChangeLogEntry{
			Original:   seg.Text,
			Translated: unit.TranslatedText,
			BlockType:  blockType,
		}
		if seg.Kind == processor.KindAttribute {
			entry.Attribute = seg.Attr
		}
		w.log = append(w.log, entry)
		return unit.TranslatedText, nil
	}
}

// echo returns every text unchanged; Extract uses it to list segments.
type echo struct{}

func (echo) Translate(_ context.Context, text, targetLang, provider string) (*blocktl.TranslationUnit, error) {
	return &blocktl.TranslationUnit{OriginalText: text, TranslatedText: text, TargetLanguage: targetLang, Provider: provider}, nil
}
