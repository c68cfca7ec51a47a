// Package bytes provides an in-memory preference source.
// This source is read-only; Save operations return ErrSaveNotSupported.
package bytes

import (
	"context"

	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// DefaultName is the provenance name used when none is given.
const DefaultName = "<bytes>"

// Source loads raw preference data from a byte slice.
type Source struct {
	name string
	data []byte
}

// Ensure Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithName sets the name reported by String, which becomes the Source
// field of parsed entry positions.
func WithName(name string) Option {
	return func(s *Source) {
		s.name = name
	}
}

// New creates a source from raw bytes.
//
// Example:
//
//	src := bytes.New(stdinData, bytes.WithName("<stdin>"))
func New(data []byte, opts ...Option) *Source {
	s := &Source{name: DefaultName, data: data}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromString creates a source from a string.
//
// Example:
//
//	src := bytes.FromString(`user_pref("browser.startup.page", 3);`)
func FromString(data string, opts ...Option) *Source {
	return New([]byte(data), opts...)
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeBytes
}

// String returns the source name.
func (s *Source) String() string {
	return s.name
}

// Load returns a copy of the data so callers cannot modify the source.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result, nil
}

// Save always returns ErrSaveNotSupported.
func (s *Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false because byte slice sources do not support saving.
func (s *Source) CanSave() bool {
	return false
}

// Watch returns a noop watcher because byte slice sources never change.
func (s *Source) Watch() (watcher.Watcher, error) {
	return watcher.NewNoop(), nil
}
