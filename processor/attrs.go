package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// attrSpan locates one attribute of a raw start tag. start and end bound
// the value bytes without quotes and are -1 for an attribute with no value.
type attrSpan struct {
	key        string
	start, end int
	quote      byte // 0 when the value is unquoted
}

// rawAttrs scans the attributes of a raw start tag the way the tokenizer
// splits them, so the nth span with a key matches the nth html.Attribute
// with that key.
func rawAttrs(raw string) []attrSpan {
	i := 1
	for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	var spans []attrSpan
	for i < len(raw) {
		for i < len(raw) && (isTagSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		k := i
		if raw[i] == '=' {
			i++
		}
		for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		span := attrSpan{key: strings.ToLower(raw[k:i]), start: -1, end: -1}

		j := i
		for j < len(raw) && isTagSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isTagSpace(raw[j]) {
				j++
			}
			switch {
			case j < len(raw) && (raw[j] == '"' || raw[j] == '\''):
				q := raw[j]
				span.quote = q
				span.start = j + 1
				span.end = len(raw)
				if n := strings.IndexByte(raw[j+1:], q); n >= 0 {
					span.end = j + 1 + n
				}
				i = min(span.end+1, len(raw))
			default:
				span.start = j
				for j < len(raw) && !isTagSpace(raw[j]) && raw[j] != '>' {
					j++
				}
				span.end = j
				i = j
			}
		}
		spans = append(spans, span)
	}
	return spans
}

// nthAttr returns the nth span (from 0) whose key is key.
func nthAttr(spans []attrSpan, key string, n int) (attrSpan, bool) {
	for _, s := range spans {
		if s.key != key {
			continue
		}
		if n == 0 {
			return s, true
		}
		n--
	}
	return attrSpan{}, false
}

// attrEdit replaces the value of span with value.
type attrEdit struct {
	span  attrSpan
	value string
}

// splice applies edits to raw. Bytes outside the edited values are kept;
// an unquoted value is written back double-quoted.
func splice(raw string, edits []attrEdit) string {
	var b strings.Builder
	b.Grow(len(raw))
	last := 0
	for _, e := range edits {
		old := raw[e.span.start:e.span.end]
		leading, trailing := edges(old)
		val := leading + html.EscapeString(e.value) + trailing

		b.WriteString(raw[last:e.span.start])
		if e.span.quote == 0 {
			b.WriteString(`"` + val + `"`)
		} else {
			b.WriteString(val)
		}
		last = e.span.end
	}
	b.WriteString(raw[last:])
	return b.String()
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// maxRefLen bounds the character references edges looks at, e.g. &#x00a0;.
const maxRefLen = 10

// edges returns the leading and trailing whitespace of raw markup. Character
// references that decode to whitespace, such as &nbsp;, count as whitespace
// and are returned as written.
func edges(raw string) (leading, trailing string) {
	i := 0
	for i < len(raw) {
		n := spaceAt(raw[i:])
		if n == 0 {
			break
		}
		i += n
	}
	j := len(raw)
	for j > i {
		n := spaceBefore(raw[i:j])
		if n == 0 {
			break
		}
		j -= n
	}
	return raw[:i], raw[j:]
}

func spaceAt(s string) int {
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsSpace(r) {
		return size
	}
	if r != '&' {
		return 0
	}
	end := strings.IndexByte(s, ';')
	if end < 0 || end > maxRefLen {
		return 0
	}
	if isSpaceRef(s[:end+1]) {
		return end + 1
	}
	return 0
}

func spaceBefore(s string) int {
	r, size := utf8.DecodeLastRuneInString(s)
	if unicode.IsSpace(r) {
		return size
	}
	if r != ';' {
		return 0
	}
	start := strings.LastIndexByte(s, '&')
	if start < 0 || len(s)-start > maxRefLen+1 {
		return 0
	}
	if isSpaceRef(s[start:]) {
		return len(s) - start
	}
	return 0
}

func isSpaceRef(ref string) bool {
	dec := html.UnescapeString(ref)
	return dec != ref && strings.TrimSpace(dec) == ""
}
