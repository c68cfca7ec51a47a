package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/source/bytes"
)

func TestNew(t *testing.T) {
	rules := map[pref.Key]Rule{
		"b.key": {Kind: pref.KindString},
		"a.key": {Kind: pref.KindBool, Deprecated: true},
	}
	s := New(rules)
	delete(rules, "a.key")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Has("a.key") {
		t.Error("New() did not copy the rules")
	}
	r, ok := s.Lookup("a.key")
	if !ok || r.Kind != pref.KindBool || !r.Deprecated {
		t.Errorf("Lookup(a.key) = %+v, %v", r, ok)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != "a.key" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestNilSchema(t *testing.T) {
	var s *Schema
	if s.Len() != 0 || s.Has("a") || s.Keys() != nil || s.Source() != "" {
		t.Error("nil schema should behave as empty")
	}
}

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format document.Format
		data   string
	}{
		{"yaml", document.FormatYAML, `
version: 1
prefs:
  browser.startup.page: int
  browser.startup.homepage:
    type: string
    description: Start page
  browser.urlbar.trimURLs:
    type: boolean
    deprecated: true
    replacement: browser.urlbar.trimHttps
`},
		{"toml", document.FormatTOML, `
version = 1

[prefs]
"browser.startup.page" = "integer"
"browser.startup.homepage" = { type = "str", description = "Start page" }

[prefs."browser.urlbar.trimURLs"]
type = "bool"
deprecated = true
replacement = "browser.urlbar.trimHttps"
`},
		{"jsonc", document.FormatJSONC, `{
  "version": 1,
  "prefs": {
    "browser.startup.page": "int",
    // start page
    "browser.startup.homepage": {"type": "string", "description": "Start page"},
    "browser.urlbar.trimURLs": {"type": "bool", "deprecated": true, "replacement": "browser.urlbar.trimHttps"},
  },
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("schema."+tt.name, []byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if s.Len() != 3 {
				t.Fatalf("Len() = %d, want 3", s.Len())
			}
			if r, _ := s.Lookup("browser.startup.page"); r.Kind != pref.KindInt {
				t.Errorf("page kind = %v", r.Kind)
			}
			if r, _ := s.Lookup("browser.startup.homepage"); r.Kind != pref.KindString || r.Description != "Start page" {
				t.Errorf("homepage rule = %+v", r)
			}
			r, _ := s.Lookup("browser.urlbar.trimURLs")
			if r.Kind != pref.KindBool || !r.Deprecated || r.Replacement != "browser.urlbar.trimHttps" {
				t.Errorf("trimURLs rule = %+v", r)
			}
			if s.Source() != "schema."+tt.name {
				t.Errorf("Source() = %q", s.Source())
			}
		})
	}
}

func TestParse_BareMapping(t *testing.T) {
	s, err := Parse("bare.json", []byte(`{"a.b": "boolean", "x": "int"}`), document.FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Len() != 2 || !s.Has("a.b") || !s.Has("x") {
		t.Errorf("Keys() = %v", s.Keys())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		format   document.Format
		data     string
		location string
	}{
		{"unknown type", document.FormatYAML, "prefs:\n  a.b: float\n", "/prefs/a.b"},
		{"rule without type", document.FormatYAML, "prefs:\n  a.b:\n    deprecated: true\n", "/prefs/a.b"},
		{"unknown rule field", document.FormatYAML, "prefs:\n  a.b:\n    type: int\n    default: 3\n", "/prefs/a.b"},
		{"illegal key", document.FormatJSON, `{"prefs": {"a b": "int"}}`, "/prefs/a b"},
		{"wrong version", document.FormatYAML, "version: 2\nprefs: {}\n", "/version"},
		{"extra top-level field", document.FormatYAML, "prefs: {}\nextra: 1\n", ""},
		{"nested toml table", document.FormatTOML, "[prefs]\na.b = \"int\"\n", "/prefs/a"},
		{"not an object", document.FormatYAML, "- a\n- b\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad", []byte(tt.data), tt.format)
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("Parse() error = %v, want *Error", err)
			}
			if len(se.Violations) == 0 {
				t.Fatal("Error has no violations")
			}
			found := false
			for _, v := range se.Violations {
				if v.Location == tt.location {
					found = true
				}
			}
			if !found {
				t.Errorf("violations %+v do not include %q", se.Violations, tt.location)
			}
			if !strings.HasPrefix(se.Error(), "invalid schema bad") {
				t.Errorf("Error() = %q", se.Error())
			}
		})
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		format document.Format
		data   string
	}{
		{"yaml syntax", document.FormatYAML, "prefs: [\n"},
		{"toml syntax", document.FormatTOML, "prefs = \n"},
		{"json syntax", document.FormatJSON, "{"},
		{"user.js", document.FormatUserJS, `user_pref("a", 1);`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad", []byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			var se *Error
			if errors.As(err, &se) {
				t.Errorf("Parse() error = %v, want a decode error", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	src := bytes.FromString("prefs:\n  a: bool\n", bytes.WithName("mem.yaml"))
	s, err := Load(context.Background(), src, document.FormatYAML)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.Has("a") || s.Source() != "mem.yaml" {
		t.Errorf("Load() = %v from %q", s.Keys(), s.Source())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.schema.toml")
	if err := os.WriteFile(path, []byte("[prefs]\n\"x.y\" = \"string\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if r, ok := s.Lookup("x.y"); !ok || r.Kind != pref.KindString {
		t.Errorf("Lookup(x.y) = %+v, %v", r, ok)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !source.IsNotExist(err) {
		t.Errorf("LoadFile(missing) error = %v, want not exist", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "schema.txt")); err == nil {
		t.Error("LoadFile() accepted an unknown extension")
	}
}
