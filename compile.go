package prefstack

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/schema"
	"github.com/yacchi/prefstack/validate"
)

// ErrValidationFailed is returned by Compile in strict mode when any
// error-severity issue was found.
var ErrValidationFailed = errors.New("validation failed")

// CompileOptions configures Compile.
type CompileOptions struct {
	// Layers are loaded concurrently and merged by ascending priority.
	Layers []layer.Spec

	// Extra are already built layers, such as environment or flag layers,
	// merged together with Layers by priority.
	Extra []*layer.Layer

	// Schema is optional. Without it no unknown or deprecated key issues
	// are reported.
	Schema *schema.Schema

	// Order of the emitted statements. Default is OrderFirstSeen.
	Order Order

	// Strict withholds the output when any error-severity issue exists.
	Strict bool

	// Emit are passed to Emit.
	Emit []EmitOption

	// Logger receives progress at debug and info level. A nil logger discards.
	Logger *log.Logger
}

// Result is the outcome of Compile.
type Result struct {
	// Layers in merge order.
	Layers []*layer.Layer

	// Set is the merged effective set.
	Set *EffectiveSet

	// Issues found by validation, in layer then entry order.
	Issues validate.Issues

	// Output is the emitted user.js. Nil when strict mode failed.
	Output []byte
}

// Compile runs the pipeline: load and parse every layer, merge, validate
// and emit.
//
// A load or parse failure aborts with no result. In strict mode an
// error-severity issue returns the result without output together with an
// error wrapping ErrValidationFailed and every error issue.
func Compile(ctx context.Context, opts CompileOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	loaded, err := layer.LoadAll(ctx, opts.Layers, layer.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, l := range opts.Extra {
		if l != nil {
			loaded = append(loaded, l)
		}
	}
	layers := layer.Sort(loaded)

	set := Merge(layers...)
	issues := validate.Run(layers, set, opts.Schema)
	logger.Debug("merged layers", "layers", len(layers), "keys", set.Len(), "issues", len(issues))

	res := &Result{Layers: layers, Set: set, Issues: issues}
	if opts.Strict && issues.HasErrors() {
		return res, fmt.Errorf("%w: %w", ErrValidationFailed, issues.Err())
	}

	res.Output, err = EmitBytes(set, opts.Order, opts.Emit...)
	if err != nil {
		return nil, err
	}
	logger.Info("compiled preferences", "keys", set.Len(), "issues", len(issues))
	return res, nil
}
