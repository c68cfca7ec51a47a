package document

import (
	"errors"
	"fmt"
)

// ErrMalformedEntry matches every *MalformedEntryError via errors.Is.
var ErrMalformedEntry = errors.New("malformed entry")

// Reason classifies a MalformedEntryError.
type Reason string

const (
	// ReasonUnterminatedStatement: missing ")" or ";", or input ended
	// inside a statement, string or block comment.
	ReasonUnterminatedStatement Reason = "unterminated statement"

	// ReasonUnknownValueType: the value is not a boolean, integer or string.
	ReasonUnknownValueType Reason = "unknown value type"

	// ReasonIllegalKeyCharacter: the key is not a legal preference name.
	ReasonIllegalKeyCharacter Reason = "illegal key character"

	// ReasonUnexpectedToken: a token appeared where the grammar forbids it.
	ReasonUnexpectedToken Reason = "unexpected token"

	// ReasonUnsupportedStructure: the document holds a structure with no
	// flat preference equivalent (arrays, tables inside arrays, a non-map root).
	ReasonUnsupportedStructure Reason = "unsupported structure"
)

// MalformedEntryError is the fatal parse error of a layer.
// It stops processing of the offending layer.
type MalformedEntryError struct {
	Source string
	Line   int
	Column int
	Reason Reason
	Detail string
}

func (e *MalformedEntryError) Error() string {
	pos := Pos{Source: e.Source, Line: e.Line, Column: e.Column}.String()
	if pos == "" {
		pos = "<input>"
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: malformed entry: %s", pos, e.Reason)
	}
	return fmt.Sprintf("%s: malformed entry: %s: %s", pos, e.Reason, e.Detail)
}

// Is reports whether target is ErrMalformedEntry.
func (e *MalformedEntryError) Is(target error) bool {
	return target == ErrMalformedEntry
}

// Malformed creates a MalformedEntryError at the given position.
//
// Example:
//
//	return nil, document.Malformed(pos, document.ReasonUnknownValueType, "floats are not supported")
func Malformed(pos Pos, reason Reason, detail string) *MalformedEntryError {
	return &MalformedEntryError{
		Source: pos.Source,
		Line:   pos.Line,
		Column: pos.Column,
		Reason: reason,
		Detail: detail,
	}
}

// Unsupported creates a MalformedEntryError with ReasonUnsupportedStructure
// and no position. Use this for simple cases without a specific location.
func Unsupported(detail string) *MalformedEntryError {
	return &MalformedEntryError{Reason: ReasonUnsupportedStructure, Detail: detail}
}
