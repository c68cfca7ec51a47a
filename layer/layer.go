// Package layer provides immutable preference layers.
// A layer is one ordered batch of entries read from a single source.
// Layers are merged in sequence order to produce the effective set.
package layer

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// Priority ranks a layer for Sort. Higher values take precedence.
type Priority int

// Name identifies a layer in provenance and reports.
type Name string

// Details holds metadata about a layer and its underlying source.
type Details struct {
	// Source is the type of source (e.g., "fs", "bytes", "s3", "ssm").
	Source source.SourceType

	// Path is the source location as reported by Source.String.
	Path string

	// Format is the document format the entries were parsed from.
	Format document.Format

	// Watcher is the type of watcher used for change detection
	// (e.g., "polling", "subscription", "noop").
	Watcher watcher.Type
}

// Layer is an immutable, ordered list of entries from a single source.
// It is safe for concurrent use.
type Layer struct {
	name     Name
	priority Priority
	details  Details
	entries  []document.Entry
}

// Option configures a Layer at construction time.
type Option func(*options)

type options struct {
	priority    Priority
	hasPriority bool
	details     Details
	logger      *log.Logger
}

// WithPriority sets the layer priority used by Sort.
func WithPriority(p Priority) Option {
	return func(o *options) {
		o.priority = p
		o.hasPriority = true
	}
}

// WithDetails sets the layer metadata reported by Details.
// Load fills it from the source and parser.
func WithDetails(d Details) Option {
	return func(o *options) {
		o.details = d
	}
}

// WithLogger sets the logger used while loading. A nil logger discards.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o
}

// New creates a layer holding a copy of entries.
//
// Example:
//
//	l := layer.New("defaults", []document.Entry{
//	    {Key: "browser.startup.page", Value: pref.Int(1)},
//	}, layer.WithPriority(prefstack.PriorityDefaults))
func New(name Name, entries []document.Entry, opts ...Option) *Layer {
	o := newOptions(opts)
	return &Layer{
		name:     name,
		priority: o.priority,
		details:  o.details,
		entries:  slices.Clone(entries),
	}
}

// Name returns the layer's name.
func (l *Layer) Name() Name {
	return l.name
}

// Priority returns the layer's priority.
func (l *Layer) Priority() Priority {
	return l.priority
}

// Format returns the document format the layer was parsed from.
func (l *Layer) Format() document.Format {
	return l.details.Format
}

// Source returns the location the layer was read from.
func (l *Layer) Source() string {
	return l.details.Path
}

// Details returns metadata about the layer's source.
func (l *Layer) Details() Details {
	return l.details
}

// Entries returns a copy of the layer's entries in declaration order.
func (l *Layer) Entries() []document.Entry {
	return slices.Clone(l.entries)
}

// Entry returns the i-th entry.
func (l *Layer) Entry(i int) document.Entry {
	return l.entries[i]
}

// Len returns the number of entries, counting repeated keys.
func (l *Layer) Len() int {
	return len(l.entries)
}

// WithPriority returns a copy of the layer with a different priority.
func (l *Layer) WithPriority(p Priority) *Layer {
	c := *l
	c.priority = p
	return &c
}

// String returns "name (path)" or just the name when the path is unknown.
func (l *Layer) String() string {
	if l.details.Path == "" || l.details.Path == string(l.name) {
		return string(l.name)
	}
	return fmt.Sprintf("%s (%s)", l.name, l.details.Path)
}

// Sort returns the layers ordered by ascending priority, so the result can
// be merged with the highest priority applied last. Layers with equal
// priority keep their relative order.
func Sort(layers []*Layer) []*Layer {
	sorted := slices.Clone(layers)
	slices.SortStableFunc(sorted, func(a, b *Layer) int {
		return int(a.priority) - int(b.priority)
	})
	return sorted
}
