package prefstack

import (
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
)

// ResolvedValue is a preference value together with its origin.
//
// A key that no layer defines has Exists=false and a nil Layer.
type ResolvedValue struct {
	// Value is the assigned value. Invalid if Exists is false.
	Value pref.Value

	// Exists indicates whether any layer defines the key.
	Exists bool

	// Layer is the layer that provided the value.
	Layer *layer.Layer

	// Pos is where the value was declared inside Layer.
	Pos document.Pos
}

// IsMissing returns true if the key does not exist in any layer.
func (rv ResolvedValue) IsMissing() bool {
	return !rv.Exists
}

// LayerName returns the owning layer's name, or "" for a missing key.
func (rv ResolvedValue) LayerName() layer.Name {
	if rv.Layer == nil {
		return ""
	}
	return rv.Layer.Name()
}

// contribution is one layer's final assignment of a key.
type contribution struct {
	layer *layer.Layer
	entry document.Entry
}

func (c contribution) resolved() ResolvedValue {
	return ResolvedValue{
		Value:  c.entry.Value,
		Exists: true,
		Layer:  c.layer,
		Pos:    c.entry.Pos,
	}
}

// origin lists the contributions for a single key, lowest priority first.
type origin []contribution

// add records entry from l. A later entry of the same layer replaces the
// earlier one so each layer contributes at most once.
func (o *origin) add(l *layer.Layer, entry document.Entry) {
	if n := len(*o); n > 0 && (*o)[n-1].layer == l {
		(*o)[n-1].entry = entry
		return
	}
	*o = append(*o, contribution{layer: l, entry: entry})
}

// get returns the highest priority contribution.
func (o origin) get() (contribution, bool) {
	if len(o) == 0 {
		return contribution{}, false
	}
	return o[len(o)-1], true
}

// WalkContext provides access to a preference during Walk traversal.
type WalkContext struct {
	// Key is the preference name.
	Key pref.Key

	origin origin
}

// Value returns the effective value of the key.
func (c WalkContext) Value() ResolvedValue {
	if last, ok := c.origin.get(); ok {
		return last.resolved()
	}
	return ResolvedValue{}
}

// AllValues returns every layer's value for the key, lowest priority first.
func (c WalkContext) AllValues() ResolvedValues {
	return c.origin.values()
}

func (o origin) values() ResolvedValues {
	if len(o) == 0 {
		return nil
	}
	results := make(ResolvedValues, 0, len(o))
	for _, c := range o {
		results = append(results, c.resolved())
	}
	return results
}

// ResolvedValues is a slice of ResolvedValue from multiple layers.
// Values are sorted by priority (lowest first), so the last element
// is the effective value.
type ResolvedValues []ResolvedValue

// Effective returns the highest priority value (the one that takes effect).
// Returns an empty ResolvedValue if the slice is empty.
func (rv ResolvedValues) Effective() ResolvedValue {
	if len(rv) == 0 {
		return ResolvedValue{}
	}
	return rv[len(rv)-1]
}

// Len returns the number of values.
func (rv ResolvedValues) Len() int {
	return len(rv)
}
