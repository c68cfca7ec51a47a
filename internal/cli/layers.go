package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/format/registry"
	"github.com/yacchi/prefstack/internal/config"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/layer/kv"
	"github.com/yacchi/prefstack/schema"
	"github.com/yacchi/prefstack/source"
	bytesource "github.com/yacchi/prefstack/source/bytes"
	"github.com/yacchi/prefstack/source/resolve"
)

// stdinName is the path argument and provenance name for standard input.
const stdinName = "-"

// fileSpecs builds one spec per path in argument order. Later paths get
// higher priorities.
func fileSpecs(paths []string, format string, stdin io.Reader) ([]layer.Spec, error) {
	specs := make([]layer.Spec, 0, len(paths))
	for i, path := range paths {
		var src source.Source
		if path == stdinName {
			if format == "" {
				return nil, fmt.Errorf("reading standard input requires --format")
			}
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read standard input: %w", err)
			}
			src = bytesource.New(data, bytesource.WithName("<stdin>"))
		} else {
			s, err := resolve.Open(path, resolve.Options{})
			if err != nil {
				return nil, err
			}
			src = s
		}

		parser, err := registry.Resolve(format, path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, layer.Spec{
			Name:     layer.Name(path),
			Source:   src,
			Parser:   parser,
			Priority: layer.Priority(i * config.DefaultPriorityStep),
		})
	}
	return specs, nil
}

// overrideLayers returns the environment and --set layers, placed above
// every spec.
func (a *app) overrideLayers(specs []layer.Spec) ([]*layer.Layer, error) {
	envPriority := prefstack.PriorityEnv
	for _, s := range specs {
		if s.Priority >= envPriority {
			envPriority = s.Priority + config.DefaultPriorityStep
		}
	}
	flagPriority := envPriority + (prefstack.PriorityFlags - prefstack.PriorityEnv)

	var layers []*layer.Layer
	if !a.noEnv {
		env, err := kv.FromEnv("env", a.envPrefix, layer.WithPriority(envPriority))
		if err != nil {
			return nil, err
		}
		if env.Len() > 0 {
			layers = append(layers, env)
		}
	}
	if len(a.sets) > 0 {
		flags, err := kv.FromPairs("flags", a.sets, layer.WithPriority(flagPriority))
		if err != nil {
			return nil, fmt.Errorf("--set: %w", err)
		}
		layers = append(layers, flags)
	}
	return layers, nil
}

// loadLayers loads the file layers and overrides, sorted for merging.
func (a *app) loadLayers(ctx context.Context, specs []layer.Spec) ([]*layer.Layer, error) {
	extra, err := a.overrideLayers(specs)
	if err != nil {
		return nil, err
	}
	loaded, err := layer.LoadAll(ctx, specs, layer.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return layer.Sort(append(loaded, extra...)), nil
}

// loadSchema loads the schema at location, or returns nil for "".
func (a *app) loadSchema(ctx context.Context, location string) (*schema.Schema, error) {
	if location == "" {
		return nil, nil
	}
	src, err := resolve.Open(location, resolve.Options{})
	if err != nil {
		return nil, err
	}
	format, err := registry.FormatForPath(location)
	if err != nil {
		return nil, err
	}
	s, err := schema.Load(ctx, src, format)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded schema", "path", location, "prefs", s.Len())
	return s, nil
}
