// Package registry selects a document.Parser by file name or format name.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/jsonc"
	"github.com/yacchi/prefstack/format/toml"
	"github.com/yacchi/prefstack/format/userjs"
	"github.com/yacchi/prefstack/format/yaml"
)

var byFormat = map[document.Format]func() document.Parser{
	document.FormatUserJS: func() document.Parser { return userjs.NewParser() },
	document.FormatYAML:   yaml.NewParser,
	document.FormatTOML:   toml.NewParser,
	document.FormatJSONC:  jsonc.NewParser,
	document.FormatJSON:   jsonc.NewJSONParser,
}

var byExt = map[string]document.Format{
	".js":    document.FormatUserJS,
	".yaml":  document.FormatYAML,
	".yml":   document.FormatYAML,
	".toml":  document.FormatTOML,
	".jsonc": document.FormatJSONC,
	".json":  document.FormatJSON,
}

// aliases maps alternative format names to their canonical format.
var aliases = map[string]document.Format{
	"user.js": document.FormatUserJS,
	"js":      document.FormatUserJS,
	"yml":     document.FormatYAML,
}

// FormatForPath returns the format implied by the extension of path.
// Matching is case-insensitive.
func FormatForPath(path string) (document.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := byExt[ext]
	if !ok {
		return "", fmt.Errorf("cannot infer format of %q: unknown extension %q", path, ext)
	}
	return f, nil
}

// ForPath returns a parser chosen by the extension of path:
// .js (user.js), .yaml/.yml, .toml, .jsonc and .json.
func ForPath(path string) (document.Parser, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	return byFormat[f](), nil
}

// ByName returns the parser for a format name such as "userjs" or "toml".
func ByName(name string) (document.Parser, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if f, ok := aliases[n]; ok {
		n = string(f)
	}
	newParser, ok := byFormat[document.Format(n)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return newParser(), nil
}

// Resolve returns the parser named by name, or the one implied by path when
// name is empty.
func Resolve(name, path string) (document.Parser, error) {
	if name != "" {
		return ByName(name)
	}
	return ForPath(path)
}

// Names returns the canonical format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(byFormat))
	for f := range byFormat {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
