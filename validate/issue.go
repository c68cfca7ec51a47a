package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
)

// Kind classifies an issue.
type Kind string

const (
	// KindDuplicateKey reports a key declared more than once in one layer.
	KindDuplicateKey Kind = "duplicate-key"

	// KindTypeConflict reports a value whose type differs from an earlier
	// layer's value or from the schema.
	KindTypeConflict Kind = "type-conflict"

	// KindUnknownKey reports a key the schema does not declare.
	KindUnknownKey Kind = "unknown-key"

	// KindDeprecatedKey reports a key the schema marks as deprecated.
	KindDeprecatedKey Kind = "deprecated-key"

	// KindRedundantOverride reports a value that every later layer
	// defining the key overrides with the same value.
	KindRedundantOverride Kind = "redundant-override"
)

// Severity ranks issues. Higher is more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity converts "info", "warning" (or "warn") and "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

// Issue is a non-fatal finding about a layer or the merged result.
type Issue struct {
	Key      pref.Key     `json:"key"`
	Layer    layer.Name   `json:"layer"`
	Kind     Kind         `json:"kind"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Pos      document.Pos `json:"-"`
}

// String formats the issue as "pos: severity: message [kind]".
func (i Issue) String() string {
	if p := i.Pos.String(); p != "" {
		return fmt.Sprintf("%s: %s: %s [%s]", p, i.Severity, i.Message, i.Kind)
	}
	return fmt.Sprintf("%s: %s [%s]", i.Severity, i.Message, i.Kind)
}

// Error implements error so issues can be joined by Issues.Err.
func (i Issue) Error() string {
	return i.String()
}

// Issues is an ordered list of issues.
type Issues []Issue

// Filter returns the issues at or above min.
func (is Issues) Filter(min Severity) Issues {
	var out Issues
	for _, i := range is {
		if i.Severity >= min {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of issues of the given kind.
func (is Issues) Count(kind Kind) int {
	n := 0
	for _, i := range is {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue has error severity.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Err joins the error-severity issues, or returns nil when there are none.
func (is Issues) Err() error {
	var errs []error
	for _, i := range is {
		if i.Severity >= SeverityError {
			errs = append(errs, i)
		}
	}
	return errors.Join(errs...)
}
