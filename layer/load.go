package layer

import (
	"context"
	"fmt"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/source"
	"golang.org/x/sync/errgroup"
)

// Spec describes a layer to load.
type Spec struct {
	Name     Name
	Source   source.Source
	Parser   document.Parser
	Priority Priority
}

// Load reads src fully and parses it into a layer. The source's String
// value is recorded as the position source of every entry.
//
// Parse failures are returned wrapped; use errors.As with
// *document.MalformedEntryError to recover the location.
//
// Example:
//
//	l, err := layer.Load(ctx, "base", fs.New("base.js"), userjs.NewParser())
func Load(ctx context.Context, name Name, src source.Source, p document.Parser, opts ...Option) (*Layer, error) {
	o := newOptions(opts)

	data, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load layer %q: %w", name, err)
	}
	entries, err := p.Parse(src.String(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layer %q: %w", name, err)
	}

	d := detailsOf(src)
	d.Format = p.Format()

	o.logger.Debug("loaded layer", "layer", name, "path", d.Path, "format", d.Format, "entries", len(entries))

	return &Layer{
		name:     name,
		priority: o.priority,
		details:  d,
		entries:  entries,
	}, nil
}

// LoadAll loads independent layers concurrently and returns them in the
// order of specs. The first failure cancels the remaining loads.
// Each spec's Priority is applied to its layer.
func LoadAll(ctx context.Context, specs []Spec, opts ...Option) ([]*Layer, error) {
	for _, s := range specs {
		if s.Source == nil || s.Parser == nil {
			return nil, fmt.Errorf("layer %q: source and parser are required", s.Name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	layers := make([]*Layer, len(specs))

	for i, s := range specs {
		lopts := append(append([]Option(nil), opts...), WithPriority(s.Priority))
		g.Go(func() error {
			l, err := Load(ctx, s.Name, s.Source, s.Parser, lopts...)
			if err != nil {
				return err
			}
			layers[i] = l
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

func detailsOf(src source.Source) Details {
	d := Details{
		Source:  src.Type(),
		Path:    src.String(),
		Watcher: watcherTypeOf(src),
	}
	return d
}
