package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Attr is a single block attribute. Value holds the raw JSON exactly as it
// appeared in the document so untouched attributes round-trip unchanged.
type Attr struct {
	Key   string
	Value json.RawMessage
}

// Attributes is an ordered set of block attributes.
type Attributes []Attr

// Get returns the raw JSON value for key.
func (a Attributes) Get(key string) (json.RawMessage, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// String returns the value for key when it is a JSON string.
func (a Attributes) String(key string) (string, bool) {
	raw, ok := a.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// SetString replaces (or appends) key with a JSON string value.
func (a *Attributes) SetString(key, value string) {
	raw := json.RawMessage(encodeString(value))
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = raw
			return
		}
	}
	*a = append(*a, Attr{Key: key, Value: raw})
}

// Keys returns attribute keys in document order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for i, attr := range a {
		out[i] = Attr{Key: attr.Key, Value: append(json.RawMessage(nil), attr.Value...)}
	}
	return out
}

// MarshalJSON writes the attributes as a JSON object in their original order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	return []byte(a.encode()), nil
}

// UnmarshalJSON reads a JSON object keeping key order. An empty array is
// accepted as an empty object, which is how some serializers emit "no attrs".
func (a *Attributes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "[]" {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("block attributes must be a JSON object")
	}

	var out Attributes
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("block attributes: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("block attributes: value for %q: %w", key, err)
		}
		out = append(out, Attr{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}

func (a Attributes) encode() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(encodeString(attr.Key))
		b.WriteByte(':')
		if len(attr.Value) == 0 {
			b.WriteString("null")
		} else {
			b.Write(attr.Value)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// encodeString encodes s as a JSON string that is safe inside an HTML
// comment: json.Marshal already escapes <, > and &, and "--" is written as
// unicode escapes so a value can never terminate the delimiter comment.
func encodeString(s string) string {
	data, _ := json.Marshal(s)
	return strings.ReplaceAll(string(data), "--", `\u002d\u002d`)
}
