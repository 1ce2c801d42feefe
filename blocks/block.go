// Package blocks models block-structured documents: a tree of typed blocks
// serialized as HTML with comment delimiters (<!-- wp:name {attrs} -->).
package blocks

import (
	"regexp"
	"strings"
)

// CoreNamespace is the implicit namespace of unqualified block names.
const CoreNamespace = "core/"

// Block is a node in a content tree.
//
// Name is empty for freeform (untyped) HTML. InnerContent interleaves HTML
// chunks with nil placeholders, one per entry of InnerBlocks, and is the
// source used when the block is serialized.
type Block struct {
	Name         string     `json:"blockName"`
	Attrs        Attributes `json:"attrs"`
	InnerBlocks  []Block    `json:"innerBlocks"`
	InnerHTML    string     `json:"innerHTML"`
	InnerContent []*string  `json:"innerContent"`
}

// NewBlock creates a leaf block whose serialized content is html.
func NewBlock(name, html string) Block {
	b := Block{Name: name, InnerHTML: html}
	b.SyncInnerContent()
	return b
}

// IsLeaf reports whether the block has no children.
func (b *Block) IsLeaf() bool {
	return len(b.InnerBlocks) == 0
}

// IsFreeform reports whether the block is untyped HTML.
func (b *Block) IsFreeform() bool {
	return b.Name == ""
}

// SyncInnerContent rebuilds InnerContent from InnerHTML. It is a no-op for
// blocks with children, whose InnerHTML is only a wrapper placeholder.
func (b *Block) SyncInnerContent() {
	if !b.IsLeaf() {
		return
	}
	if b.InnerHTML == "" {
		b.InnerContent = nil
		return
	}
	html := b.InnerHTML
	b.InnerContent = []*string{&html}
}

// Clone returns a deep copy that shares no memory with b.
func (b Block) Clone() Block {
	out := Block{
		Name:      b.Name,
		Attrs:     b.Attrs.Clone(),
		InnerHTML: b.InnerHTML,
	}
	if b.InnerContent != nil {
		out.InnerContent = make([]*string, len(b.InnerContent))
		for i, chunk := range b.InnerContent {
			if chunk != nil {
				s := *chunk
				out.InnerContent[i] = &s
			}
		}
	}
	if b.InnerBlocks != nil {
		out.InnerBlocks = CloneAll(b.InnerBlocks)
	}
	return out
}

// CloneAll deep-copies a block list.
func CloneAll(list []Block) []Block {
	if list == nil {
		return nil
	}
	out := make([]Block, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

// NormalizeName qualifies a bare block name with the core namespace.
func NormalizeName(name string) string {
	if name == "" || strings.Contains(name, "/") {
		return name
	}
	return CoreNamespace + name
}

// ShortName strips the core namespace, as used in serialized delimiters.
func ShortName(name string) string {
	return strings.TrimPrefix(name, CoreNamespace)
}

// Count returns the number of top-level blocks.
func Count(list []Block) int {
	return len(list)
}

// CountAll returns the number of blocks in the whole tree.
func CountAll(list []Block) int {
	n := 0
	for i := range list {
		n += 1 + CountAll(list[i].InnerBlocks)
	}
	return n
}

// Names returns the top-level block names in order.
func Names(list []Block) []string {
	names := make([]string, len(list))
	for i := range list {
		names[i] = list[i].Name
	}
	return names
}

// SameShape reports whether two trees have the same block count, the same
// name sequence and the same nesting at every level.
func SameShape(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if NormalizeName(a[i].Name) != NormalizeName(b[i].Name) {
			return false
		}
		if !SameShape(a[i].InnerBlocks, b[i].InnerBlocks) {
			return false
		}
	}
	return true
}

var namePattern = regexp.MustCompile(`^([a-z][a-z0-9_-]*/)?[a-z][a-z0-9_-]*$`)

// Validate checks the structural invariants of a tree: block names are well
// formed and every child has exactly one placeholder in InnerContent.
func Validate(list []Block) error {
	return validate(list, "")
}

func validate(list []Block, path string) error {
	for i := range list {
		b := &list[i]
		at := path + "/" + itoa(i)
		if b.Name != "" && !namePattern.MatchString(b.Name) {
			return &StructureError{Path: at, Message: "invalid block name " + quote(b.Name)}
		}
		if b.Name == "" && len(b.InnerBlocks) > 0 {
			return &StructureError{Path: at, Message: "freeform block cannot have children"}
		}
		if len(b.InnerBlocks) > 0 {
			slots := 0
			for _, chunk := range b.InnerContent {
				if chunk == nil {
					slots++
				}
			}
			if slots != len(b.InnerBlocks) {
				return &StructureError{
					Path:    at,
					Message: "inner content has " + itoa(slots) + " placeholders for " + itoa(len(b.InnerBlocks)) + " children",
				}
			}
		}
		if err := validate(b.InnerBlocks, at); err != nil {
			return err
		}
	}
	return nil
}
