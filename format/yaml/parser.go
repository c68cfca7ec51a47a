// Package yaml parses preference layers written as YAML mappings.
//
// Nested mappings are flattened into dotted keys in document order:
//
//	browser:
//	  startup:
//	    page: 3          # browser.startup.page = 3
//	privacy.resistFingerprinting: true
//
// Scalars must resolve to !!bool, !!int or !!str. Floats and nulls are
// rejected; sequences are an unsupported structure.
package yaml

import (
	"fmt"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format"
	"gopkg.in/yaml.v3"
)

// NewParser creates a new YAML parser.
//
// Example:
//
//	parser := yaml.NewParser()
//	l, err := layer.Load(ctx, "team", fs.New("team.yaml"), parser)
func NewParser() document.Parser {
	return format.NewParser(document.FormatYAML, Parse, Marshal)
}

// Parse flattens a YAML document into ordered entries.
// Empty input, or a document containing only comments, yields no entries.
func Parse(name string, data []byte) ([]document.Entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, document.Malformed(document.Pos{Source: name}, document.ReasonUnexpectedToken, err.Error())
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}

	top := resolveAlias(root.Content[0])
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return nil, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, document.Unsupported(fmt.Sprintf("%s: top-level %s, want a mapping", name, kindName(top.Kind)))
	}

	w := &walker{name: name}
	if err := w.mapping(top, nil); err != nil {
		return nil, err
	}
	return w.entries, nil
}

type walker struct {
	name    string
	entries []document.Entry
}

func (w *walker) pos(n *yaml.Node) document.Pos {
	return document.Pos{Source: w.name, Line: n.Line, Column: n.Column}
}

func (w *walker) mapping(node *yaml.Node, prefix []string) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := resolveAlias(node.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			return document.Malformed(w.pos(keyNode), document.ReasonIllegalKeyCharacter,
				fmt.Sprintf("%s used as a mapping key", kindName(keyNode.Kind)))
		}
		path := append(append([]string(nil), prefix...), keyNode.Value)

		switch valNode.Kind {
		case yaml.MappingNode:
			if err := w.mapping(valNode, path); err != nil {
				return err
			}
		case yaml.ScalarNode:
			raw, err := scalar(valNode)
			if err != nil {
				return document.Malformed(w.pos(valNode), document.ReasonUnknownValueType, err.Error())
			}
			entry, err := format.NewEntry(w.pos(keyNode), path, raw)
			if err != nil {
				return err
			}
			w.entries = append(w.entries, entry)
		default:
			return document.Malformed(w.pos(valNode), document.ReasonUnsupportedStructure,
				fmt.Sprintf("%s value for key %q", kindName(valNode.Kind), keyNode.Value))
		}
	}
	return nil
}

// scalar decodes a scalar node into bool, int64 or string.
func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("%q is not a 64-bit integer", n.Value)
		}
		return i, nil
	case "!!str", "!!timestamp", "!!binary":
		return n.Value, nil
	case "!!null":
		return nil, fmt.Errorf("null is not a preference value")
	case "!!float":
		return nil, fmt.Errorf("float %s is not a preference value", n.Value)
	}
	return nil, fmt.Errorf("unsupported tag %s", n.Tag)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown node"
}

// Marshal renders entries as a flat YAML mapping with one dotted key per
// entry, in order.
func Marshal(entries []document.Entry) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		var k, v yaml.Node
		if err := k.Encode(string(e.Key)); err != nil {
			return nil, err
		}
		if err := v.Encode(e.Value.Interface()); err != nil {
			return nil, err
		}
		m.Content = append(m.Content, &k, &v)
	}
	if len(m.Content) == 0 {
		return []byte("{}\n"), nil
	}
	return yaml.Marshal(m)
}
