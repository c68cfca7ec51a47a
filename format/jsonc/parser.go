// Package jsonc parses preference layers written as JSON or JSON with
// comments and trailing commas (JWCC, via github.com/tailscale/hujson).
//
// Nested objects are flattened into dotted keys in document order:
//
//	{
//	  // start page
//	  "browser": {"startup": {"page": 3}},
//	  "privacy.resistFingerprinting": true,
//	}
package jsonc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tailscale/hujson"
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format"
)

// NewParser creates a new JSONC parser.
//
// Example:
//
//	parser := jsonc.NewParser()
//	l, err := layer.Load(ctx, "team", fs.New("team.jsonc"), parser)
func NewParser() document.Parser {
	return format.NewParser(document.FormatJSONC, Parse, Marshal)
}

// NewJSONParser creates a parser that accepts standard JSON only.
func NewJSONParser() document.Parser {
	return format.NewParser(document.FormatJSON, ParseJSON, Marshal)
}

// Parse flattens a JSONC document into ordered entries.
func Parse(name string, data []byte) ([]document.Entry, error) {
	return parse(name, data, false)
}

// ParseJSON is Parse for standard JSON; comments and trailing commas are
// rejected.
func ParseJSON(name string, data []byte) ([]document.Entry, error) {
	return parse(name, data, true)
}

func parse(name string, data []byte, strict bool) ([]document.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	v, err := hujson.Parse(data)
	if err != nil {
		return nil, document.Malformed(document.Pos{Source: name}, document.ReasonUnexpectedToken, err.Error())
	}
	if strict && !v.IsStandard() {
		return nil, document.Malformed(document.Pos{Source: name}, document.ReasonUnexpectedToken,
			"comments and trailing commas are not allowed in JSON")
	}

	obj, ok := v.Value.(*hujson.Object)
	if !ok {
		return nil, document.Unsupported(fmt.Sprintf("%s: top-level value must be an object", name))
	}

	w := &walker{name: name, data: data}
	if err := w.object(obj, nil); err != nil {
		return nil, err
	}
	return w.entries, nil
}

type walker struct {
	name    string
	data    []byte
	entries []document.Entry
}

func (w *walker) pos(v hujson.Value) document.Pos {
	return format.PosAt(w.name, w.data, v.StartOffset)
}

func (w *walker) object(obj *hujson.Object, prefix []string) error {
	for _, m := range obj.Members {
		nameLit, ok := m.Name.Value.(hujson.Literal)
		if !ok {
			return document.Malformed(w.pos(m.Name), document.ReasonUnexpectedToken, "object member name is not a string")
		}
		var key string
		if err := json.Unmarshal(nameLit, &key); err != nil {
			return document.Malformed(w.pos(m.Name), document.ReasonUnexpectedToken, err.Error())
		}
		path := append(append([]string(nil), prefix...), key)

		switch val := m.Value.Value.(type) {
		case *hujson.Object:
			if err := w.object(val, path); err != nil {
				return err
			}
		case *hujson.Array:
			return document.Malformed(w.pos(m.Value), document.ReasonUnsupportedStructure,
				fmt.Sprintf("array value for key %q", key))
		case hujson.Literal:
			raw, err := literal(val)
			if err != nil {
				return document.Malformed(w.pos(m.Value), document.ReasonUnknownValueType, err.Error())
			}
			entry, err := format.NewEntry(w.pos(m.Name), path, raw)
			if err != nil {
				return err
			}
			w.entries = append(w.entries, entry)
		}
	}
	return nil
}

// literal decodes a JSON literal into bool, int64 or string.
func literal(lit hujson.Literal) (any, error) {
	if len(lit) == 0 {
		return nil, fmt.Errorf("empty literal")
	}
	switch lit[0] {
	case 't':
		return true, nil
	case 'f':
		return false, nil
	case 'n':
		return nil, fmt.Errorf("null is not a preference value")
	case '"':
		var s string
		if err := json.Unmarshal(lit, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
	i, err := strconv.ParseInt(string(lit), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("number %s is not a 64-bit integer", lit)
	}
	return i, nil
}

// Marshal renders entries as a flat object with one dotted key per entry,
// in order, formatted by hujson.
func Marshal(entries []document.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(e.Key))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value.Interface())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return hujson.Format(buf.Bytes())
}
