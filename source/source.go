// Package source provides interfaces and implementations for preference sources.
// A source represents where layer data comes from and optionally where it can be saved.
// Sources are responsible only for I/O operations; parsing is handled by a document.Parser.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/yacchi/prefstack/watcher"
)

// SourceType identifies the kind of a source.
type SourceType string

// Standard source types. Remote sources define their own constants.
const (
	TypeFS    SourceType = "fs"
	TypeBytes SourceType = "bytes"
)

// ErrSaveNotSupported is returned when Save is called on a source that doesn't support saving.
var ErrSaveNotSupported = errors.New("save not supported for this source")

// UpdateFunc generates new data to save.
// It receives the current bytes from the source (captured while the source
// is locked) and returns the new bytes to write.
type UpdateFunc func(current []byte) ([]byte, error)

// Source loads and optionally saves raw layer data.
// Sources are format-agnostic; they only handle raw bytes.
type Source interface {
	// Load reads the raw data from the source.
	// The context can be used for cancellation and timeouts.
	Load(ctx context.Context) ([]byte, error)

	// Save writes data back to the source.
	//
	// The updateFunc receives the current bytes and returns the bytes to
	// write. Implementations write atomically where the backing store
	// allows it.
	//
	// Returns ErrSaveNotSupported if the source doesn't support saving.
	Save(ctx context.Context, updateFunc UpdateFunc) error

	// CanSave returns true if the source supports saving.
	CanSave() bool

	// Type returns the source type identifier.
	Type() SourceType

	// String returns a human readable location, used as the provenance
	// name of entries loaded from this source.
	String() string
}

// WatchableSource is a Source that can report changes.
type WatchableSource interface {
	Source

	// Watch returns an unstarted Watcher for this source.
	Watch() (watcher.Watcher, error)
}

// NotExistError reports that the backing object of a source does not exist.
type NotExistError struct {
	Location string
	Err      error
}

// NewNotExistError creates a NotExistError for the given location.
func NewNotExistError(location string, err error) *NotExistError {
	return &NotExistError{Location: location, Err: err}
}

func (e *NotExistError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s does not exist", e.Location)
	}
	return fmt.Sprintf("%s does not exist: %v", e.Location, e.Err)
}

func (e *NotExistError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether err (or any error it wraps) is a NotExistError.
func IsNotExist(err error) bool {
	var ne *NotExistError
	return errors.As(err, &ne)
}
