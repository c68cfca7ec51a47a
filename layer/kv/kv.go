// Package kv builds preference layers from key=value pairs given on the
// command line or in environment variables.
//
// A pair has the form key=literal. The literal uses the user.js value
// syntax (true, false, a decimal integer, or a double-quoted string); an
// unquoted literal that is neither a boolean nor an integer is taken as a
// string:
//
//	browser.startup.page=3
//	browser.startup.homepage=about:home
//	browser.startup.homepage="about:home"
//	general.useragent.override="3"   // the string "3"
//
// Environment variables carry whole pairs in their values; the variable
// name after the prefix only orders them:
//
//	PREFSTACK_SET_01='browser.startup.page=3'
//	PREFSTACK_SET_02='privacy.resistFingerprinting=true'
package kv

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/userjs"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/source"
)

const (
	// Format is the document format reported by kv layers.
	Format document.Format = "kv"

	// TypeFlags is the source type of layers built from flags.
	TypeFlags source.SourceType = "flags"

	// TypeEnv is the source type of layers built from the environment.
	TypeEnv source.SourceType = "env"

	// DefaultEnvPrefix is the prefix of variables read by FromEnv.
	DefaultEnvPrefix = "PREFSTACK_SET_"

	// FlagSource is the position source recorded for flag entries.
	FlagSource = "--set"
)

// environ is a hook for tests.
var environ = os.Environ

// ParseLiteral converts a value literal into a pref.Value.
func ParseLiteral(s string) (pref.Value, error) {
	lit := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(lit, `"`):
		v, err := userjs.ParseValue(lit)
		if err != nil {
			return pref.Value{}, fmt.Errorf("invalid quoted literal %s: %w", lit, err)
		}
		return v, nil
	case lit == "true":
		return pref.Bool(true), nil
	case lit == "false":
		return pref.Bool(false), nil
	}
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return pref.Int(i), nil
	}
	return pref.String(s), nil
}

// ParsePair splits "key=literal" and parses both halves.
func ParsePair(s string) (pref.Key, pref.Value, error) {
	k, lit, ok := strings.Cut(s, "=")
	if !ok {
		return "", pref.Value{}, fmt.Errorf("invalid pair %q: expected key=value", s)
	}
	key := pref.Key(strings.TrimSpace(k))
	if err := key.Validate(); err != nil {
		return "", pref.Value{}, fmt.Errorf("invalid pair %q: %w", s, err)
	}
	v, err := ParseLiteral(lit)
	if err != nil {
		return "", pref.Value{}, fmt.Errorf("invalid pair %q: %w", s, err)
	}
	return key, v, nil
}

// FromPairs builds a layer from key=literal pairs in the given order.
// Entry positions are FlagSource with the 1-based pair index as the line.
//
// Example:
//
//	l, err := kv.FromPairs("flags", []string{"browser.startup.page=3"},
//	    layer.WithPriority(prefstack.PriorityFlags))
func FromPairs(name layer.Name, pairs []string, opts ...layer.Option) (*layer.Layer, error) {
	entries := make([]document.Entry, 0, len(pairs))
	for i, p := range pairs {
		key, v, err := ParsePair(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, document.Entry{
			Key:   key,
			Value: v,
			Pos:   document.Pos{Source: FlagSource, Line: i + 1},
		})
	}
	d := layer.Details{Source: TypeFlags, Path: FlagSource, Format: Format}
	return layer.New(name, entries, append(opts, layer.WithDetails(d))...), nil
}

// FromEnv builds a layer from environment variables starting with prefix,
// ordered by variable name. Each value must be a key=literal pair.
// An empty prefix selects DefaultEnvPrefix.
func FromEnv(name layer.Name, prefix string, opts ...layer.Option) (*layer.Layer, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	type variable struct{ name, value string }
	var vars []variable
	for _, env := range environ() {
		k, v, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		vars = append(vars, variable{k, v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })

	entries := make([]document.Entry, 0, len(vars))
	for _, v := range vars {
		key, val, err := ParsePair(v.value)
		if err != nil {
			return nil, fmt.Errorf("environment variable %s: %w", v.name, err)
		}
		entries = append(entries, document.Entry{
			Key:   key,
			Value: val,
			Pos:   document.Pos{Source: "$" + v.name},
		})
	}
	d := layer.Details{Source: TypeEnv, Path: prefix + "*", Format: Format}
	return layer.New(name, entries, append(opts, layer.WithDetails(d))...), nil
}
