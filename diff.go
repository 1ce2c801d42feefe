package blocktl

import (
	"bytes"
	"strconv"

	"github.com/ZaguanLabs/blocktl/blocks"
)

// BlockDiff is one difference between an original and a translated block.
type BlockDiff struct {
	Path       string `json:"path"`       // Index path of the block, e.g. "/2/0"
	BlockType  string `json:"block_type"` // Name of the original block
	Field      string `json:"field"`      // "innerHTML" or "attrs"
	Attribute  string `json:"attribute,omitempty"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// DiffResult lists the differences between two block trees.
type DiffResult struct {
	Diffs []BlockDiff `json:"diffs"`

	// Structural reports mismatches in block count or names that make the
	// trees not comparable position by position.
	Structural []string `json:"structural,omitempty"`
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Diffs) > 0 || len(d.Structural) > 0
}

// Stats counts HTML and attribute differences.
func (d *DiffResult) Stats() DiffStats {
	var s DiffStats
	for _, diff := range d.Diffs {
		if diff.Field == "attrs" {
			s.Attributes++
		} else {
			s.HTML++
		}
	}
	s.Structural = len(d.Structural)
	return s
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	HTML       int `json:"html"`
	Attributes int `json:"attributes"`
	Structural int `json:"structural"`
}

// CompareBlocks compares two block trees position by position and reports
// changed leaf HTML and changed or added attributes. Wrapper HTML of blocks
// with children is not compared.
func CompareBlocks(original, translated []blocks.Block) *DiffResult {
	result := &DiffResult{}
	compareLevel(result, original, translated, "")
	return result
}

func compareLevel(result *DiffResult, original, translated []blocks.Block, path string) {
	if len(original) != len(translated) {
		result.Structural = append(result.Structural,
			"block count at "+pathOrRoot(path)+": "+strconv.Itoa(len(original))+" != "+strconv.Itoa(len(translated)))
	}

	n := min(len(original), len(translated))
	for i := 0; i < n; i++ {
		o, t := &original[i], &translated[i]
		at := path + "/" + strconv.Itoa(i)

		if blocks.NormalizeName(o.Name) != blocks.NormalizeName(t.Name) {
			result.Structural = append(result.Structural, "block name at "+at+": "+o.Name+" != "+t.Name)
			continue
		}

		if o.IsLeaf() && o.InnerHTML != t.InnerHTML {
			result.Diffs = append(result.Diffs, BlockDiff{
				Path:       at,
				BlockType:  o.Name,
				Field:      "innerHTML",
				Original:   o.InnerHTML,
				Translated: t.InnerHTML,
			})
		}

		for _, attr := range t.Attrs {
			before, ok := o.Attrs.Get(attr.Key)
			if ok && bytes.Equal(before, attr.Value) {
				continue
			}
			result.Diffs = append(result.Diffs, BlockDiff{
				Path:       at,
				BlockType:  o.Name,
				Field:      "attrs",
				Attribute:  attr.Key,
				Original:   attrText(o.Attrs, attr.Key, before),
				Translated: attrText(t.Attrs, attr.Key, attr.Value),
			})
		}

		compareLevel(result, o.InnerBlocks, t.InnerBlocks, at)
	}
}

func attrText(attrs blocks.Attributes, key string, raw []byte) string {
	if s, ok := attrs.String(key); ok {
		return s
	}
	return string(raw)
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
