package prefstack

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yacchi/prefstack/format/userjs"
)

// EmitOption configures Emit.
type EmitOption func(*emitOptions)

type emitOptions struct {
	header     []string
	provenance bool
	statement  string
}

// WithHeader writes lines as leading "// " comments.
func WithHeader(lines ...string) EmitOption {
	return func(o *emitOptions) {
		o.header = append(o.header, lines...)
	}
}

// WithProvenance appends a "// from <layer>" comment to every statement.
func WithProvenance() EmitOption {
	return func(o *emitOptions) {
		o.provenance = true
	}
}

// WithStatement sets the statement name, e.g. "pref" for a defaults file.
// Default is "user_pref".
func WithStatement(name string) EmitOption {
	return func(o *emitOptions) {
		o.statement = name
	}
}

// Emit writes set to w as canonical user.js, one statement per effective
// key in the given order. The output is byte-identical for equal sets,
// orders and options, and parses back to the same key/value mapping.
func Emit(w io.Writer, set *EffectiveSet, order Order, opts ...EmitOption) error {
	var o emitOptions
	for _, opt := range opts {
		opt(&o)
	}

	enc := userjs.NewEncoder(w, userjs.WithStatement(o.statement))
	if len(o.header) > 0 {
		if err := enc.Comment(strings.Join(o.header, "\n")); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	var err error
	set.Walk(order, func(ctx WalkContext) bool {
		rv := ctx.Value()
		note := ""
		if o.provenance {
			note = "from " + string(rv.LayerName())
		}
		if err = enc.Encode(ctx.Key, rv.Value, note); err != nil {
			err = fmt.Errorf("failed to emit %q: %w", ctx.Key, err)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// EmitBytes returns the output of Emit.
func EmitBytes(set *EffectiveSet, order Order, opts ...EmitOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := Emit(&buf, set, order, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
