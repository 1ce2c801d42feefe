// Package processor walks HTML fragments and replaces their human-readable
// text in place, leaving every other byte of markup untouched.
package processor

import "context"

// SegmentKind distinguishes text runs from attribute values.
type SegmentKind string

const (
	// KindText is a text node between tags.
	KindText SegmentKind = "text"
	// KindAttribute is a translatable attribute value (img alt, title).
	KindAttribute SegmentKind = "attribute"
)

// Segment is one translatable unit found in a fragment.
type Segment struct {
	Text string      // Decoded text with surrounding whitespace trimmed
	Kind SegmentKind // Text node or attribute value
	Tag  string      // Enclosing element (text) or owning element (attribute)
	Attr string      // Attribute name for KindAttribute
}

// TranslateFunc returns the replacement for a segment. Returning an error
// aborts the walk.
type TranslateFunc func(ctx context.Context, seg Segment) (string, error)

// DefaultIgnoredTags contains elements whose content is never translated.
var DefaultIgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"textarea": true,
	"noscript": true,
}

// DefaultAttributes lists translatable attributes per element.
var DefaultAttributes = map[string][]string{
	"img": {"alt", "title"},
}

// NoTranslateAttr marks an element whose subtree is left untouched.
const NoTranslateAttr = "data-no-translate"
