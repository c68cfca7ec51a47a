// Package validate checks preference layers against each other and against
// an optional schema. Checks never fail; findings are returned as Issues.
package validate

import (
	"fmt"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/schema"
)

// Effective is the merged view consulted by the checks.
type Effective interface {
	// Lookup returns the effective value of key.
	Lookup(key pref.Key) (pref.Value, bool)
}

type definition struct {
	value pref.Value
	layer layer.Name
	pos   document.Pos
}

// Run checks layers (in merge order), the set merged from them, and s,
// which may be nil. Issues are ordered by layer, then entry, then check:
// duplicate key, type conflict, unknown key, deprecated key, redundant
// override.
//
// Example:
//
//	set := prefstack.Merge(layers...)
//	issues := validate.Run(layers, set, s)
//	if issues.HasErrors() {
//	    return issues.Err()
//	}
func Run(layers []*layer.Layer, set Effective, s *schema.Schema) Issues {
	// index of the last entry each layer assigns to a key
	finals := make([]map[pref.Key]int, len(layers))
	for i, l := range layers {
		m := make(map[pref.Key]int, l.Len())
		for j := range l.Len() {
			m[l.Entry(j).Key] = j
		}
		finals[i] = m
	}

	var issues Issues
	prior := make(map[pref.Key]definition)
	unknownSeen := make(map[pref.Key]bool)
	deprecatedSeen := make(map[pref.Key]bool)

	for i, l := range layers {
		first := make(map[pref.Key]document.Entry)
		duplicated := make(map[pref.Key]bool)
		layerConflict := make(map[pref.Key]bool)
		schemaConflict := make(map[pref.Key]bool)

		for j := range l.Len() {
			e := l.Entry(j)
			issue := func(kind Kind, sev Severity, format string, args ...any) {
				issues = append(issues, Issue{
					Key:      e.Key,
					Layer:    l.Name(),
					Kind:     kind,
					Severity: sev,
					Message:  fmt.Sprintf(format, args...),
					Pos:      e.Pos,
				})
			}

			if f, ok := first[e.Key]; !ok {
				first[e.Key] = e
			} else if !duplicated[e.Key] {
				duplicated[e.Key] = true
				issue(KindDuplicateKey, SeverityError,
					"%s is declared more than once in layer %s (first at %s)", e.Key, l.Name(), f.Pos)
			}

			if p, ok := prior[e.Key]; ok && p.value.Kind() != e.Value.Kind() && !layerConflict[e.Key] {
				layerConflict[e.Key] = true
				issue(KindTypeConflict, SeverityError,
					"%s is %s here but %s in layer %s (%s)", e.Key, e.Value.Kind(), p.value.Kind(), p.layer, p.pos)
			}

			rule, known := s.Lookup(e.Key)
			if known && rule.Kind != e.Value.Kind() && !schemaConflict[e.Key] {
				schemaConflict[e.Key] = true
				issue(KindTypeConflict, SeverityError,
					"%s is %s here but the schema declares %s", e.Key, e.Value.Kind(), rule.Kind)
			}

			if s != nil && !known && !unknownSeen[e.Key] {
				unknownSeen[e.Key] = true
				issue(KindUnknownKey, SeverityInfo, "%s is not declared in the schema", e.Key)
			}

			if known && rule.Deprecated && !deprecatedSeen[e.Key] {
				deprecatedSeen[e.Key] = true
				if rule.Replacement != "" {
					issue(KindDeprecatedKey, SeverityWarning, "%s is deprecated; use %s", e.Key, rule.Replacement)
				} else {
					issue(KindDeprecatedKey, SeverityWarning, "%s is deprecated", e.Key)
				}
			}

			if finals[i][e.Key] == j && redundant(e, layers[i+1:], finals[i+1:], set) {
				issue(KindRedundantOverride, SeverityInfo,
					"%s = %s in layer %s is overridden with the same value by every later layer", e.Key, e.Value, l.Name())
			}
		}

		for k, j := range finals[i] {
			e := l.Entry(j)
			prior[k] = definition{value: e.Value, layer: l.Name(), pos: e.Pos}
		}
	}
	return issues
}

// redundant reports whether e, the final assignment of its key in its
// layer, is overridden by at least one later layer and every later layer
// assigning the key uses the same value.
func redundant(e document.Entry, later []*layer.Layer, finals []map[pref.Key]int, set Effective) bool {
	if set != nil {
		if v, ok := set.Lookup(e.Key); !ok || !v.Equal(e.Value) {
			return false
		}
	}
	overridden := false
	for i, l := range later {
		j, ok := finals[i][e.Key]
		if !ok {
			continue
		}
		if !l.Entry(j).Value.Equal(e.Value) {
			return false
		}
		overridden = true
	}
	return overridden
}
