// Package toml parses preference layers written as TOML.
//
// Tables and dotted keys are flattened into preference keys in document
// order:
//
//	[browser.startup]
//	page = 3                 # browser.startup.page = 3
//	"homepage" = "about:home"
//
// Parsing uses the syntax-level parser from go-toml's unstable package so
// that declaration order and repeated keys survive; TOML's own duplicate key
// rule is left to the validator, which reports it per layer.
package toml

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format"
)

// NewParser creates a new TOML parser.
//
// Example:
//
//	parser := toml.NewParser()
//	l, err := layer.Load(ctx, "team", fs.New("team.toml"), parser)
func NewParser() document.Parser {
	return format.NewParser(document.FormatTOML, Parse, Marshal)
}

// Parse flattens a TOML document into ordered entries.
func Parse(name string, data []byte) ([]document.Entry, error) {
	p := unstable.Parser{}
	p.Reset(data)

	w := &walker{name: name, data: data, p: &p}
	var table []string
	for p.NextExpression() {
		n := p.Expression()
		switch n.Kind {
		case unstable.Table:
			table = w.keyPath(n, nil)
		case unstable.ArrayTable:
			return nil, document.Malformed(w.keyPos(n), document.ReasonUnsupportedStructure,
				"array of tables is not a preference value")
		case unstable.KeyValue:
			if err := w.keyValue(n, table); err != nil {
				return nil, err
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, w.parseError(err)
	}
	return w.entries, nil
}

type walker struct {
	name    string
	data    []byte
	p       *unstable.Parser
	entries []document.Entry
}

// keyPath appends the key parts of n to prefix.
func (w *walker) keyPath(n *unstable.Node, prefix []string) []string {
	path := append([]string(nil), prefix...)
	it := n.Key()
	for it.Next() {
		path = append(path, string(it.Node().Data))
	}
	return path
}

// keyPos returns the position of the first key part of n.
func (w *walker) keyPos(n *unstable.Node) document.Pos {
	it := n.Key()
	if it.Next() {
		return format.PosAt(w.name, w.data, int(it.Node().Raw.Offset))
	}
	return document.Pos{Source: w.name}
}

func (w *walker) valuePos(n *unstable.Node, fallback document.Pos) document.Pos {
	if n.Raw.Length > 0 || n.Raw.Offset > 0 {
		return format.PosAt(w.name, w.data, int(n.Raw.Offset))
	}
	if len(n.Data) > 0 {
		return format.PosAt(w.name, w.data, int(w.p.Range(n.Data).Offset))
	}
	return fallback
}

func (w *walker) keyValue(n *unstable.Node, table []string) error {
	path := w.keyPath(n, table)
	pos := w.keyPos(n)
	val := n.Value()

	var raw any
	switch val.Kind {
	case unstable.InlineTable:
		it := val.Children()
		for it.Next() {
			child := it.Node()
			if child.Kind != unstable.KeyValue {
				continue
			}
			if err := w.keyValue(child, path); err != nil {
				return err
			}
		}
		return nil
	case unstable.Array:
		return document.Malformed(w.valuePos(val, pos), document.ReasonUnsupportedStructure,
			fmt.Sprintf("array value for key %q", path[len(path)-1]))
	case unstable.String:
		raw = string(val.Data)
	case unstable.Bool:
		raw = string(val.Data) == "true"
	case unstable.Integer:
		i, err := strconv.ParseInt(string(val.Data), 0, 64)
		if err != nil {
			return document.Malformed(w.valuePos(val, pos), document.ReasonUnknownValueType,
				fmt.Sprintf("%q is not a 64-bit integer", val.Data))
		}
		raw = i
	default:
		return document.Malformed(w.valuePos(val, pos), document.ReasonUnknownValueType,
			fmt.Sprintf("%s %s is not a preference value", val.Kind, val.Data))
	}

	entry, err := format.NewEntry(pos, path, raw)
	if err != nil {
		return err
	}
	w.entries = append(w.entries, entry)
	return nil
}

func (w *walker) parseError(err error) error {
	pos := document.Pos{Source: w.name}
	detail := err.Error()
	var perr *unstable.ParserError
	if errors.As(err, &perr) {
		if len(perr.Highlight) > 0 {
			pos = format.PosAt(w.name, w.data, int(w.p.Range(perr.Highlight).Offset))
		}
		detail = perr.Message
	}
	return document.Malformed(pos, document.ReasonUnexpectedToken, detail)
}

// Marshal renders entries as top-level quoted keys, one per line, in order.
func Marshal(entries []document.Entry) ([]byte, error) {
	var out []byte
	for _, e := range entries {
		line, err := toml.Marshal(map[string]any{string(e.Key): e.Value.Interface()})
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", e.Key, err)
		}
		out = append(out, line...)
	}
	return out, nil
}
