// Package config loads the prefstack.toml project file.
//
//	output = "~/.mozilla/firefox/work/user.js"
//	order = "lexical"
//	strict = true
//	schema = "schema.yaml"
//	header = ["generated by prefstack", "do not edit"]
//	provenance = true
//
//	[log]
//	level = "info"
//
//	[[layer]]
//	name = "base"
//	path = "base/user.js"
//
//	[[layer]]
//	name = "team"
//	path = "s3://prefs-bucket/team.toml"
//	priority = 20
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/format/registry"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/source/resolve"
)

// Default values.
const (
	DefaultFile         = "prefstack.toml"
	DefaultPriorityStep = 10
)

// Project holds the full project configuration.
type Project struct {
	// Output is where build writes the compiled user.js. Empty means stdout.
	Output string `toml:"output"`

	// Order is "first-seen" or "lexical".
	Order string `toml:"order"`

	Strict     bool     `toml:"strict"`
	Schema     string   `toml:"schema"`
	Header     []string `toml:"header"`
	Provenance bool     `toml:"provenance"`

	// Statement overrides the emitted statement name ("user_pref").
	Statement string `toml:"statement"`

	// EnvPrefix enables an environment layer read from variables with
	// this prefix.
	EnvPrefix string `toml:"env_prefix"`

	Log    LogConfig     `toml:"log"`
	Watch  WatchConfig   `toml:"watch"`
	Layers []LayerConfig `toml:"layer"`

	// Dir is the directory of the project file. Relative paths are
	// resolved against it.
	Dir string `toml:"-"`
}

// LogConfig configures the console logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	Debounce     time.Duration `toml:"debounce"`
}

// LayerConfig describes one [[layer]] table.
type LayerConfig struct {
	// Name defaults to the file name without extension.
	Name string `toml:"name"`

	// Path is a file path or a s3://, ssm:// or appconfig:// location.
	Path string `toml:"path"`

	// Format overrides detection from the path extension.
	Format string `toml:"format"`

	// Priority defaults to position * DefaultPriorityStep.
	Priority *int `toml:"priority"`
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	p := &Project{}
	md, err := toml.DecodeFile(path, p)
	if err != nil {
		return nil, fmt.Errorf("failed to decode project file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("project file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	p.Dir = filepath.Dir(path)
	if err := p.finalize(); err != nil {
		return nil, fmt.Errorf("project file %s: %w", path, err)
	}
	return p, nil
}

// Find returns the project file in dir: prefstack.toml or .prefstack.toml.
func Find(dir string) (string, error) {
	for _, name := range []string{DefaultFile, "." + DefaultFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s found in %s", DefaultFile, dir)
}

func (p *Project) finalize() error {
	if _, err := prefstack.ParseOrder(p.Order); err != nil {
		return err
	}
	if len(p.Layers) == 0 {
		return errors.New("no [[layer]] defined")
	}

	seen := make(map[string]bool, len(p.Layers))
	for i := range p.Layers {
		l := &p.Layers[i]
		if l.Path == "" {
			return fmt.Errorf("layer %d: path is required", i+1)
		}
		if l.Name == "" {
			base := filepath.Base(l.Path)
			l.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate layer name %q", l.Name)
		}
		seen[l.Name] = true
		if l.Priority == nil {
			prio := i * DefaultPriorityStep
			l.Priority = &prio
		}
		l.Path = p.resolvePath(l.Path)
	}
	if p.Schema != "" {
		p.Schema = p.resolvePath(p.Schema)
	}
	if p.Output != "" {
		p.Output = p.resolvePath(p.Output)
	}
	return nil
}

// resolvePath joins relative file paths to the project directory.
func (p *Project) resolvePath(path string) string {
	if strings.Contains(path, "://") ||
		filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// LayerSpecs opens every layer's source and parser, ordered by ascending
// priority.
func (p *Project) LayerSpecs(opts resolve.Options) ([]layer.Spec, error) {
	specs := make([]layer.Spec, 0, len(p.Layers))
	for _, l := range p.Layers {
		src, err := resolve.Open(l.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		parser, err := registry.Resolve(l.Format, l.Path)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		specs = append(specs, layer.Spec{
			Name:     layer.Name(l.Name),
			Source:   src,
			Parser:   parser,
			Priority: layer.Priority(*l.Priority),
		})
	}
	slices.SortStableFunc(specs, func(a, b layer.Spec) int {
		return int(a.Priority) - int(b.Priority)
	})
	return specs, nil
}

// EmitOptions returns the emitter options selected by the project.
func (p *Project) EmitOptions() []prefstack.EmitOption {
	var opts []prefstack.EmitOption
	if len(p.Header) > 0 {
		opts = append(opts, prefstack.WithHeader(p.Header...))
	}
	if p.Provenance {
		opts = append(opts, prefstack.WithProvenance())
	}
	if p.Statement != "" {
		opts = append(opts, prefstack.WithStatement(p.Statement))
	}
	return opts
}
