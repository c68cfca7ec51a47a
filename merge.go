package prefstack

import (
	"maps"
	"slices"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
)

// EffectiveSet is the result of merging layers: every key maps to exactly
// one value, owned by the last layer that defines it.
//
// An EffectiveSet is immutable and safe for concurrent use.
type EffectiveSet struct {
	layers    []*layer.Layer
	origins   map[pref.Key]origin
	firstSeen []pref.Key
}

// Merge applies layers in sequence order. Each entry unconditionally
// replaces any earlier mapping of its key and becomes its owner; values are
// not type checked. Sort layers with layer.Sort first to merge by priority.
//
// Example:
//
//	set := prefstack.Merge(base, profile, flags)
//	rv := set.Get("browser.startup.page")
//	fmt.Println(rv.Value, rv.LayerName(), rv.Pos)
func Merge(layers ...*layer.Layer) *EffectiveSet {
	s := &EffectiveSet{
		layers:  slices.Clone(layers),
		origins: make(map[pref.Key]origin),
	}
	for _, l := range layers {
		if l == nil {
			continue
		}
		for i := range l.Len() {
			e := l.Entry(i)
			o, ok := s.origins[e.Key]
			if !ok {
				s.firstSeen = append(s.firstSeen, e.Key)
			}
			o.add(l, e)
			s.origins[e.Key] = o
		}
	}
	s.layers = slices.DeleteFunc(s.layers, func(l *layer.Layer) bool { return l == nil })
	return s
}

// Get returns the effective value of key.
func (s *EffectiveSet) Get(key pref.Key) ResolvedValue {
	if s == nil {
		return ResolvedValue{}
	}
	if last, ok := s.origins[key].get(); ok {
		return last.resolved()
	}
	return ResolvedValue{}
}

// GetAll returns every layer's value for key, lowest priority first.
// A layer that assigns the key more than once contributes its last
// assignment.
func (s *EffectiveSet) GetAll(key pref.Key) ResolvedValues {
	if s == nil {
		return nil
	}
	return s.origins[key].values()
}

// Lookup returns the effective value of key and whether it exists.
func (s *EffectiveSet) Lookup(key pref.Key) (pref.Value, bool) {
	rv := s.Get(key)
	return rv.Value, rv.Exists
}

// Keys returns the effective keys in the given order.
func (s *EffectiveSet) Keys(order Order) []pref.Key {
	if s == nil {
		return nil
	}
	keys := slices.Clone(s.firstSeen)
	if order == OrderLexical {
		slices.Sort(keys)
	}
	return keys
}

// Len returns the number of effective keys.
func (s *EffectiveSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.origins)
}

// Layers returns the merged layers in merge order.
func (s *EffectiveSet) Layers() []*layer.Layer {
	if s == nil {
		return nil
	}
	return slices.Clone(s.layers)
}

// Walk calls fn for every effective key in the given order until fn
// returns false.
//
// Example:
//
//	set.Walk(prefstack.OrderLexical, func(ctx prefstack.WalkContext) bool {
//	    rv := ctx.Value()
//	    fmt.Printf("%s = %s (%s, %d layers)\n", ctx.Key, rv.Value, rv.LayerName(), ctx.AllValues().Len())
//	    return true
//	})
func (s *EffectiveSet) Walk(order Order, fn func(ctx WalkContext) bool) {
	for _, key := range s.Keys(order) {
		if !fn(WalkContext{Key: key, origin: s.origins[key]}) {
			return
		}
	}
}

// Entries returns the effective entries in the given order. Positions are
// those of the owning declarations.
func (s *EffectiveSet) Entries(order Order) []document.Entry {
	keys := s.Keys(order)
	entries := make([]document.Entry, 0, len(keys))
	for _, key := range keys {
		last, _ := s.origins[key].get()
		entries = append(entries, last.entry)
	}
	return entries
}

// Values returns the effective mapping without provenance.
func (s *EffectiveSet) Values() map[pref.Key]pref.Value {
	out := make(map[pref.Key]pref.Value, s.Len())
	if s == nil {
		return out
	}
	for key, o := range s.origins {
		last, _ := o.get()
		out[key] = last.entry.Value
	}
	return out
}

// Equal reports whether s and other have the same keys, values and owning
// layer names. Positions and key order are ignored.
func (s *EffectiveSet) Equal(other *EffectiveSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for key, o := range s.origins {
		a, _ := o.get()
		b, ok := other.origins[key].get()
		if !ok || !a.entry.Value.Equal(b.entry.Value) || a.layer.Name() != b.layer.Name() {
			return false
		}
	}
	return true
}

// SameValues reports whether s and other map the same keys to the same
// values, ignoring provenance.
func (s *EffectiveSet) SameValues(other *EffectiveSet) bool {
	return maps.EqualFunc(s.Values(), other.Values(), pref.Value.Equal)
}
