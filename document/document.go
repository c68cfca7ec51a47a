// Package document provides the entry model shared by every preference
// layer format.
//
// A parsed document is an ordered list of Entry records in declaration
// order. Formats never deduplicate: a key declared twice yields two entries.
package document

import (
	"fmt"

	"github.com/yacchi/prefstack/pref"
)

// Entry is a single preference assignment together with where it was declared.
type Entry struct {
	// Key is the preference name.
	Key pref.Key

	// Value is the assigned value.
	Value pref.Value

	// Pos is the provenance of the assignment.
	Pos Pos
}

// Pos locates an entry inside its source. Line and Column are 1-based;
// zero means unknown (e.g. entries built from command-line flags).
type Pos struct {
	Source string
	Line   int
	Column int
}

// String formats the position as "source:line:col", dropping unknown parts.
func (p Pos) String() string {
	switch {
	case p.Line == 0:
		return p.Source
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", p.Source, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
	}
}

// Format identifies the syntax of a preference document.
type Format string

const (
	// FormatUserJS is the host statement format: user_pref("key", value);
	FormatUserJS Format = "userjs"

	// FormatYAML represents YAML format (using gopkg.in/yaml.v3).
	FormatYAML Format = "yaml"

	// FormatTOML represents TOML format (using github.com/pelletier/go-toml/v2).
	FormatTOML Format = "toml"

	// FormatJSONC represents JSON with Comments (using github.com/tailscale/hujson).
	FormatJSONC Format = "jsonc"

	// FormatJSON represents standard JSON, parsed with the JSONC parser.
	FormatJSON Format = "json"
)
