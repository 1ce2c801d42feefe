package blocks

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StructureError reports a malformed document or block tree.
type StructureError struct {
	Path    string // Block path ("/0/2") or byte offset ("@120")
	Message string
}

func (e *StructureError) Error() string {
	if e.Path == "" {
		return "block structure: " + e.Message
	}
	return "block structure at " + e.Path + ": " + e.Message
}

type tokenKind int

const (
	tokenOpener tokenKind = iota
	tokenCloser
	tokenVoid
)

type token struct {
	kind  tokenKind
	name  string
	attrs Attributes
	start int
	end   int
}

type frame struct {
	block            Block
	prevOffset       int
	tokenStart       int
	leadingHTMLStart int // -1 when there is no leading freeform HTML
}

// Parse splits a document into its block tree. Text outside any block
// delimiter becomes freeform blocks, so Serialize(Parse(doc)) reproduces doc
// up to delimiter whitespace.
func Parse(document string) ([]Block, error) {
	var (
		output []Block
		stack  []*frame
		offset int
	)

	for {
		tok, found, err := nextToken(document, offset)
		if err != nil {
			return nil, err
		}

		if !found {
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				return nil, &StructureError{
					Path:    "@" + strconv.Itoa(top.tokenStart),
					Message: "unclosed block " + quote(top.block.Name),
				}
			}
			if offset < len(document) {
				output = append(output, NewBlock("", document[offset:]))
			}
			return output, nil
		}

		switch tok.kind {
		case tokenVoid:
			b := Block{Name: tok.name, Attrs: tok.attrs}
			if len(stack) == 0 {
				if tok.start > offset {
					output = append(output, NewBlock("", document[offset:tok.start]))
				}
				output = append(output, b)
			} else {
				addInner(stack[len(stack)-1], document, b, tok.start, tok.end)
			}
			offset = tok.end

		case tokenOpener:
			f := &frame{
				block:            Block{Name: tok.name, Attrs: tok.attrs},
				prevOffset:       tok.end,
				tokenStart:       tok.start,
				leadingHTMLStart: -1,
			}
			if len(stack) == 0 && tok.start > offset {
				f.leadingHTMLStart = offset
			}
			stack = append(stack, f)
			offset = tok.end

		case tokenCloser:
			if len(stack) == 0 {
				return nil, &StructureError{
					Path:    "@" + strconv.Itoa(tok.start),
					Message: "closer " + quote(tok.name) + " without opener",
				}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.block.Name != tok.name {
				return nil, &StructureError{
					Path:    "@" + strconv.Itoa(tok.start),
					Message: "closer " + quote(tok.name) + " does not match " + quote(top.block.Name),
				}
			}
			appendHTML(&top.block, document[top.prevOffset:tok.start])

			if len(stack) == 0 {
				if top.leadingHTMLStart >= 0 {
					output = append(output, NewBlock("", document[top.leadingHTMLStart:top.tokenStart]))
				}
				output = append(output, top.block)
			} else {
				addInner(stack[len(stack)-1], document, top.block, top.tokenStart, tok.end)
			}
			offset = tok.end
		}
	}
}

func addInner(parent *frame, document string, child Block, childStart, childEnd int) {
	appendHTML(&parent.block, document[parent.prevOffset:childStart])
	parent.block.InnerBlocks = append(parent.block.InnerBlocks, child)
	parent.block.InnerContent = append(parent.block.InnerContent, nil)
	parent.prevOffset = childEnd
}

func appendHTML(b *Block, html string) {
	if html == "" {
		return
	}
	b.InnerHTML += html
	b.InnerContent = append(b.InnerContent, &html)
}

// nextToken finds the next block delimiter at or after offset. Comments that
// are not block delimiters are left in place as HTML.
func nextToken(document string, offset int) (token, bool, error) {
	for offset < len(document) {
		idx := strings.Index(document[offset:], "<!--")
		if idx < 0 {
			return token{}, false, nil
		}
		start := offset + idx
		tok, ok, err := scanDelimiter(document, start)
		if err != nil {
			return token{}, false, err
		}
		if ok {
			return tok, true, nil
		}
		offset = start + 4
	}
	return token{}, false, nil
}

func scanDelimiter(document string, start int) (token, bool, error) {
	i := start + 4
	j := skipSpace(document, i)
	if j == i {
		return token{}, false, nil
	}
	i = j

	kind := tokenOpener
	if i < len(document) && document[i] == '/' {
		kind = tokenCloser
		i++
	}
	if !strings.HasPrefix(document[i:], "wp:") {
		return token{}, false, nil
	}
	i += 3

	nameEnd := scanName(document, i)
	if nameEnd == i {
		return token{}, false, nil
	}
	name := NormalizeName(document[i:nameEnd])
	i = nameEnd

	j = skipSpace(document, i)
	if j == i {
		return token{}, false, nil
	}
	i = j

	var attrs Attributes
	if i < len(document) && document[i] == '{' {
		attrEnd, next := scanAttrs(document, i)
		if attrEnd < 0 {
			return token{}, false, nil
		}
		if err := json.Unmarshal([]byte(document[i:attrEnd]), &attrs); err != nil {
			return token{}, false, &StructureError{
				Path:    "@" + strconv.Itoa(start),
				Message: "invalid attributes for " + quote(name) + ": " + err.Error(),
			}
		}
		i = next
	}

	if i < len(document) && document[i] == '/' {
		if kind == tokenOpener {
			kind = tokenVoid
		}
		i++
	}
	if !strings.HasPrefix(document[i:], "-->") {
		return token{}, false, nil
	}

	return token{kind: kind, name: name, attrs: attrs, start: start, end: i + 3}, true, nil
}

// scanAttrs returns the end of the JSON object starting at i and the offset
// just past the whitespace that must follow it. The object ends at the first
// "}" followed by whitespace and an optional "/" before "-->".
func scanAttrs(document string, i int) (int, int) {
	for k := i + 1; k < len(document); k++ {
		if document[k] != '}' {
			continue
		}
		after := skipSpace(document, k+1)
		if after == k+1 {
			continue
		}
		rest := document[after:]
		if strings.HasPrefix(rest, "-->") || strings.HasPrefix(rest, "/-->") {
			return k + 1, after
		}
	}
	return -1, -1
}

func scanName(document string, i int) int {
	end := scanSegment(document, i)
	if end == i {
		return i
	}
	if end < len(document) && document[end] == '/' {
		if second := scanSegment(document, end+1); second > end+1 {
			return second
		}
	}
	return end
}

func scanSegment(document string, i int) int {
	if i >= len(document) || document[i] < 'a' || document[i] > 'z' {
		return i
	}
	j := i + 1
	for j < len(document) {
		c := document[j]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			j++
			continue
		}
		break
	}
	return j
}

func skipSpace(document string, i int) int {
	for i < len(document) {
		switch document[i] {
		case ' ', '\t', '\n', '\r', '\f':
			i++
		default:
			return i
		}
	}
	return i
}

func itoa(n int) string { return strconv.Itoa(n) }

func quote(s string) string { return strconv.Quote(s) }
