// Package format provides common utilities for document format implementations.
package format

import (
	"strings"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/pref"
)

// ParseFunc parses the bytes of the source called name into ordered entries.
type ParseFunc func(name string, data []byte) ([]document.Entry, error)

// MarshalFunc renders entries so that parsing the result yields them again.
type MarshalFunc func(entries []document.Entry) ([]byte, error)

// NewParser creates a Parser with the given format, parse and marshal functions.
//
// Example:
//
//	parser := format.NewParser(document.FormatYAML, yaml.Parse, yaml.Marshal)
func NewParser(f document.Format, parse ParseFunc, marshal MarshalFunc) document.Parser {
	return &parser{
		format:      f,
		parseFunc:   parse,
		marshalFunc: marshal,
	}
}

// parser implements document.Parser using the provided functions.
type parser struct {
	format      document.Format
	parseFunc   ParseFunc
	marshalFunc MarshalFunc
}

// Ensure parser implements the document.Parser interface.
var _ document.Parser = (*parser)(nil)

// Parse implements the document.Parser interface.
func (p *parser) Parse(name string, data []byte) ([]document.Entry, error) {
	return p.parseFunc(name, data)
}

// Format implements the document.Parser interface.
func (p *parser) Format() document.Format {
	return p.format
}

// MarshalTestData implements the document.Parser interface.
func (p *parser) MarshalTestData(entries []document.Entry) ([]byte, error) {
	return p.marshalFunc(entries)
}

// NewEntry builds an entry for a flattened mapping path.
// The segments are joined with "." to form the key, and raw must be a scalar
// accepted by pref.FromInterface.
//
// Errors are *document.MalformedEntryError with ReasonIllegalKeyCharacter or
// ReasonUnknownValueType.
func NewEntry(pos document.Pos, segments []string, raw any) (document.Entry, error) {
	key := pref.Key(strings.Join(segments, "."))
	if err := key.Validate(); err != nil {
		return document.Entry{}, document.Malformed(pos, document.ReasonIllegalKeyCharacter, err.Error())
	}
	v, err := pref.FromInterface(raw)
	if err != nil {
		return document.Entry{}, document.Malformed(pos, document.ReasonUnknownValueType,
			"key "+string(key)+": "+err.Error())
	}
	return document.Entry{Key: key, Value: v, Pos: pos}, nil
}

// PosAt converts a byte offset in data into a 1-based line and column
// (columns count runes).
func PosAt(name string, data []byte, offset int) document.Pos {
	if offset > len(data) {
		offset = len(data)
	}
	pos := document.Pos{Source: name, Line: 1, Column: 1}
	for _, c := range data[:max(offset, 0)] {
		switch {
		case c == '\n':
			pos.Line++
			pos.Column = 1
		case c < 0x80 || c >= 0xC0:
			pos.Column++
		}
	}
	return pos
}
