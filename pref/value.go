package pref

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies the type carried by a Value.
type Kind uint8

const (
	// KindInvalid is the kind of the zero Value.
	KindInvalid Kind = iota
	// KindBool is a boolean preference.
	KindBool
	// KindInt is a signed 64-bit integer preference.
	KindInt
	// KindString is a string preference.
	KindString
)

// String returns the schema name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// ParseKind converts a schema type name into a Kind.
// Accepted names are "bool", "boolean", "int", "integer", "string" and "str".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer":
		return KindInt, nil
	case "string", "str":
		return KindString, nil
	}
	return KindInvalid, fmt.Errorf("unknown preference type %q", s)
}

// Value is a tagged union of a boolean, an integer or a string.
// The zero Value has KindInvalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
}

// Bool returns a boolean Value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Int returns an integer Value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// String returns a string Value.
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether the value was built by one of the constructors.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer payload and whether v is an integer.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Interface returns the payload as bool, int64 or string, or nil for the zero Value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindString:
		return v.s
	}
	return nil
}

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders the canonical literal: true/false, a decimal integer, or a
// double-quoted escaped string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return Quote(v.s)
	}
	return "<invalid>"
}

// FromInterface converts a decoded scalar into a Value.
// Signed and unsigned Go integers become KindInt when they fit in int64.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint:
		if uint64(t) > 1<<63-1 {
			return Value{}, fmt.Errorf("integer %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case uint64:
		if t > 1<<63-1 {
			return Value{}, fmt.Errorf("integer %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case nil:
		return Value{}, fmt.Errorf("null is not a preference value")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", x)
}

// Quote returns s as a double-quoted literal in the host grammar.
// Backslash, double quote and control characters are escaped; everything
// else, including non-ASCII text, is written as is.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			// Invalid UTF-8 bytes are written as U+FFFD.
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
