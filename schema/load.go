package schema

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tailscale/hujson"
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/registry"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/source/fs"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var metaSchema string

const metaSchemaURL = "https://github.com/yacchi/prefstack/schema.json"

var compileMeta = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(metaSchemaURL, strings.NewReader(metaSchema)); err != nil {
		return nil, err
	}
	return c.Compile(metaSchemaURL)
})

// Load reads a schema document from src.
//
// Example:
//
//	s, err := schema.Load(ctx, fs.New("prefs.schema.yaml"), document.FormatYAML)
func Load(ctx context.Context, src source.Source, format document.Format) (*Schema, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return Parse(src.String(), data, format)
}

// LoadFile reads a schema file, choosing the format by extension.
func LoadFile(path string) (*Schema, error) {
	format, err := registry.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	return Load(context.Background(), fs.New(path), format)
}

// Parse decodes a schema document. The document is checked against the
// embedded meta schema first; violations are reported as *Error.
func Parse(name string, data []byte, format document.Format) (*Schema, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", name, err)
	}

	meta, err := compileMeta()
	if err != nil {
		return nil, fmt.Errorf("failed to compile meta schema: %w", err)
	}
	if err := meta.Validate(doc); err != nil {
		return nil, newError(name, err)
	}

	return convert(name, doc)
}

// decode converts data into the JSON data model: maps, slices, strings,
// bools and json.Number.
func decode(data []byte, format document.Format) (any, error) {
	var doc any
	switch format {
	case document.FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case document.FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case document.FormatJSON, document.FormatJSONC:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, err
		}
		return decodeJSON(std)
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return decodeJSON(b)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func convert(name string, doc any) (*Schema, error) {
	root, _ := doc.(map[string]any)
	prefs := root
	if p, ok := root["prefs"].(map[string]any); ok {
		prefs = p
	}

	s := &Schema{source: name, rules: make(map[pref.Key]Rule, len(prefs))}
	for k, v := range prefs {
		key := pref.Key(k)
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}

		var rule Rule
		var typeName string
		switch t := v.(type) {
		case string:
			typeName = t
		case map[string]any:
			typeName, _ = t["type"].(string)
			rule.Deprecated, _ = t["deprecated"].(bool)
			if r, ok := t["replacement"].(string); ok {
				rule.Replacement = pref.Key(r)
			}
			rule.Description, _ = t["description"].(string)
		}

		kind, err := pref.ParseKind(typeName)
		if err != nil {
			return nil, fmt.Errorf("schema %s: key %s: %w", name, key, err)
		}
		rule.Kind = kind
		s.rules[key] = rule
	}
	return s, nil
}

// Violation is one failing location in a schema document.
type Violation struct {
	// Location is a JSON pointer into the document, e.g. "/prefs/a.b".
	Location string
	Message  string
}

// Error reports a schema document that does not match the expected shape.
type Error struct {
	Source     string
	Violations []Violation
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid schema %s", e.Source)
	for _, v := range e.Violations {
		loc := v.Location
		if loc == "" {
			loc = "/"
		}
		fmt.Fprintf(&sb, "\n  at %s: %s", loc, v.Message)
	}
	return sb.String()
}

func newError(name string, err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("failed to validate schema %s: %w", name, err)
	}
	e := &Error{Source: name}
	collectViolations(ve, e)
	sort.SliceStable(e.Violations, func(i, j int) bool {
		return e.Violations[i].Location < e.Violations[j].Location
	})
	return e
}

// collectViolations gathers the leaf causes of a validation error.
func collectViolations(ve *jsonschema.ValidationError, e *Error) {
	if len(ve.Causes) == 0 {
		e.Violations = append(e.Violations, Violation{Location: ve.InstanceLocation, Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, e)
	}
}
