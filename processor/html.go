package processor

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/blocktl"
	"golang.org/x/net/html"
)

// HTMLProcessor finds translatable text in HTML fragments and replaces it
// in place. Fragments are streamed through the HTML tokenizer, so markup
// that is not rewritten is emitted byte for byte, and partial fragments
// (an opening wrapper tag without its closer) are handled.
type HTMLProcessor struct {
	ignoredTags map[string]bool
	attributes  map[string][]string
}

// Option configures an HTMLProcessor.
type Option func(*HTMLProcessor)

// WithIgnoredTags replaces the set of elements whose content is skipped.
func WithIgnoredTags(tags ...string) Option {
	return func(p *HTMLProcessor) {
		p.ignoredTags = make(map[string]bool, len(tags))
		for _, tag := range tags {
			p.ignoredTags[strings.ToLower(tag)] = true
		}
	}
}

// WithAttributes marks attributes of tag as translatable.
func WithAttributes(tag string, attrs ...string) Option {
	return func(p *HTMLProcessor) {
		tag = strings.ToLower(tag)
		p.attributes[tag] = append(p.attributes[tag], attrs...)
	}
}

// NewHTMLProcessor creates a processor with the default ignored tags and
// translatable attributes.
func NewHTMLProcessor(opts ...Option) *HTMLProcessor {
	p := &HTMLProcessor{
		ignoredTags: DefaultIgnoredTags,
		attributes:  make(map[string][]string, len(DefaultAttributes)),
	}
	for tag, attrs := range DefaultAttributes {
		p.attributes[tag] = append([]string(nil), attrs...)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// TranslateTextNodes calls fn for every translatable text node and attribute
// of fragment in document order and returns the fragment with the results
// substituted. Whitespace-only and skipped values are left as they are. If
// nothing is replaced the input is returned unchanged.
func (p *HTMLProcessor) TranslateTextNodes(ctx context.Context, fragment string, fn TranslateFunc) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	var (
		out     strings.Builder
		stack   []string
		skipAt  = -1 // stack depth where an ignored subtree starts
		changed bool
	)
	out.Grow(len(fragment))

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", &blocktl.Error{Code: blocktl.CodeHTMLParseError, Cause: err}
			}
			break
		}

		// Raw must be copied first: Text and Token rewrite the buffer.
		raw := string(z.Raw())

		switch tt {
		case html.TextToken:
			text := string(z.Text())
			if skipAt >= 0 || ShouldSkip(text) {
				out.WriteString(raw)
				continue
			}
			translated, err := fn(ctx, Segment{
				Text: strings.TrimSpace(text),
				Kind: KindText,
				Tag:  top(stack),
			})
			if err != nil {
				return "", err
			}
			leading, trailing := edges(raw)
			out.WriteString(leading + textEscaper.Replace(translated) + trailing)
			changed = true

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			name := tok.Data
			opens := tt == html.StartTagToken && !voidElements[name]

			if skipAt < 0 && (p.ignoredTags[name] || hasAttr(tok, NoTranslateAttr)) {
				if !opens {
					out.WriteString(raw)
					continue
				}
				skipAt = len(stack)
			}
			if opens {
				stack = append(stack, name)
			}

			if skipAt >= 0 {
				out.WriteString(raw)
				continue
			}
			rewritten, err := p.translateAttrs(ctx, tok, raw, fn)
			if err != nil {
				return "", err
			}
			if rewritten != raw {
				changed = true
			}
			out.WriteString(rewritten)

		case html.EndTagToken:
			name, _ := z.TagName()
			stack = pop(stack, string(name))
			if skipAt >= 0 && len(stack) <= skipAt {
				skipAt = -1
			}
			out.WriteString(raw)

		default:
			out.WriteString(raw)
		}
	}

	if !changed {
		return fragment, nil
	}
	return out.String(), nil
}

// Extract returns the segments TranslateTextNodes would send, without
// translating anything.
func (p *HTMLProcessor) Extract(fragment string) ([]Segment, error) {
	var segments []Segment
	_, err := p.TranslateTextNodes(context.Background(), fragment, func(_ context.Context, seg Segment) (string, error) {
		segments = append(segments, seg)
		return seg.Text, nil
	})
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// translateAttrs translates the configured attributes of tok and splices
// the results into raw. Every other byte of the tag is kept.
func (p *HTMLProcessor) translateAttrs(ctx context.Context, tok html.Token, raw string, fn TranslateFunc) (string, error) {
	names, ok := p.attributes[tok.Data]
	if !ok {
		return raw, nil
	}
	spans := rawAttrs(raw)

	var edits []attrEdit
	for _, name := range names {
		nth := -1
		for _, a := range tok.Attr {
			if a.Key != name {
				continue
			}
			nth++
			if ShouldSkip(a.Val) {
				continue
			}
			span, ok := nthAttr(spans, name, nth)
			if !ok || span.start < 0 {
				continue
			}
			translated, err := fn(ctx, Segment{
				Text: strings.TrimSpace(a.Val),
				Kind: KindAttribute,
				Tag:  tok.Data,
				Attr: name,
			})
			if err != nil {
				return "", err
			}
			edits = append(edits, attrEdit{span: span, value: translated})
		}
	}
	if len(edits) == 0 {
		return raw, nil
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].span.start < edits[j].span.start })
	return splice(raw, edits), nil
}

// PlainText returns the visible text of an HTML document or fragment with
// whitespace collapsed. Block delimiters are comments and do not appear.
func PlainText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	doc.Find("script, style, noscript, [" + NoTranslateAttr + "]").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func hasAttr(tok html.Token, key string) bool {
	for _, a := range tok.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func top(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// pop closes the innermost open element named name. Stray end tags leave
// the stack unchanged.
func pop(stack []string, name string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == name {
			return stack[:i]
		}
	}
	return stack
}
