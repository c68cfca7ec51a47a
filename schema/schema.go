// Package schema describes the expected type of known preferences.
//
// A schema document maps preference keys to a type name or to a rule:
//
//	version: 1
//	prefs:
//	  browser.startup.page: int
//	  browser.startup.homepage:
//	    type: string
//	    description: Start page URL
//	  browser.urlbar.trimURLs:
//	    type: bool
//	    deprecated: true
//	    replacement: browser.urlbar.trimHttps
//
// Documents may be YAML, TOML or JSON/JSONC. In TOML, keys containing dots
// must be quoted. A document without a prefs member is read as the prefs
// mapping itself.
package schema

import (
	"maps"
	"slices"

	"github.com/yacchi/prefstack/pref"
)

// Rule is the expectation for one preference key.
type Rule struct {
	// Kind is the declared value type.
	Kind pref.Kind

	// Deprecated marks keys that should no longer be set.
	Deprecated bool

	// Replacement optionally names the key to use instead.
	Replacement pref.Key

	// Description is free text shown in reports.
	Description string
}

// Schema is an immutable set of rules keyed by preference key.
type Schema struct {
	source string
	rules  map[pref.Key]Rule
}

// New creates a schema from rules. The map is copied.
//
// Example:
//
//	s := schema.New(map[pref.Key]schema.Rule{
//	    "browser.startup.page": {Kind: pref.KindInt},
//	})
func New(rules map[pref.Key]Rule) *Schema {
	return &Schema{rules: maps.Clone(rules)}
}

// Lookup returns the rule for key.
func (s *Schema) Lookup(key pref.Key) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	r, ok := s.rules[key]
	return r, ok
}

// Has reports whether key is declared.
func (s *Schema) Has(key pref.Key) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Len returns the number of declared keys.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Keys returns the declared keys in byte-wise order.
func (s *Schema) Keys() []pref.Key {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.rules))
}

// Source returns where the schema was loaded from, or "" for schemas built
// with New.
func (s *Schema) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}
