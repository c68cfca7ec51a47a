// Package pref defines the preference key and value types shared by every
// other prefstack package.
// This package contains only type definitions and their validation, no I/O.
package pref

import (
	"fmt"
	"strings"
)

// Key is a dot-segmented namespaced preference identifier,
// e.g. "browser.startup.page".
type Key string

// KeyError describes why a key is not a legal preference name.
type KeyError struct {
	Key    Key
	Offset int
	Reason string
}

func (e *KeyError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid key %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid key %q at offset %d: %s", e.Key, e.Offset, e.Reason)
}

// Validate reports whether k is a legal preference name.
//
// Legal keys are non-empty, consist of ASCII letters, digits and the
// characters ". _ - : @ { } /", and contain no empty dot segment.
func (k Key) Validate() error {
	if k == "" {
		return &KeyError{Key: k, Offset: -1, Reason: "empty key"}
	}
	for i := 0; i < len(k); i++ {
		if !isKeyChar(k[i]) {
			return &KeyError{Key: k, Offset: i, Reason: fmt.Sprintf("illegal character %q", k[i])}
		}
	}
	if k[0] == '.' {
		return &KeyError{Key: k, Offset: 0, Reason: "leading dot"}
	}
	if k[len(k)-1] == '.' {
		return &KeyError{Key: k, Offset: len(k) - 1, Reason: "trailing dot"}
	}
	if i := strings.Index(string(k), ".."); i >= 0 {
		return &KeyError{Key: k, Offset: i + 1, Reason: "empty segment"}
	}
	return nil
}

// Segments returns the dot-separated parts of the key.
func (k Key) Segments() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), ".")
}

// Namespace returns the first segment of the key ("browser" for
// "browser.startup.page").
func (k Key) Namespace() string {
	s, _, _ := strings.Cut(string(k), ".")
	return s
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

func isKeyChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '.', '_', '-', ':', '@', '{', '}', '/':
		return true
	}
	return false
}
