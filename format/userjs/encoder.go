package userjs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/pref"
)

// Encoder writes canonical user.js statements:
//
//	user_pref("<key>", <value>);
//
// one per line, with fixed quoting and a fixed terminator.
type Encoder struct {
	w         *bufio.Writer
	statement string
	err       error
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithStatement sets the statement name written for each entry.
// Default is "user_pref".
func WithStatement(name string) EncoderOption {
	return func(e *Encoder) {
		if name != "" {
			e.statement = name
		}
	}
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		w:         bufio.NewWriter(w),
		statement: DefaultStatement,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Comment writes a full-line "// " comment. Embedded newlines start new
// comment lines.
func (e *Encoder) Comment(text string) error {
	if e.err != nil {
		return e.err
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			_, e.err = e.w.WriteString("//\n")
		} else {
			_, e.err = fmt.Fprintf(e.w, "// %s\n", line)
		}
		if e.err != nil {
			return e.err
		}
	}
	return nil
}

// Encode writes one statement. A non-empty note is appended as a trailing
// "// note" comment; newlines in the note are replaced by spaces.
func (e *Encoder) Encode(key pref.Key, value pref.Value, note string) error {
	if e.err != nil {
		return e.err
	}
	if err := key.Validate(); err != nil {
		e.err = err
		return err
	}
	if !value.IsValid() {
		e.err = fmt.Errorf("key %q: invalid value", key)
		return e.err
	}
	_, e.err = fmt.Fprintf(e.w, "%s(%s, %s);", e.statement, pref.Quote(string(key)), value)
	if e.err == nil && note != "" {
		note = strings.NewReplacer("\r", " ", "\n", " ").Replace(note)
		_, e.err = fmt.Fprintf(e.w, " // %s", note)
	}
	if e.err == nil {
		e.err = e.w.WriteByte('\n')
	}
	return e.err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	e.err = e.w.Flush()
	return e.err
}

func marshal(entries []document.Entry, statement string) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, WithStatement(statement))
	for _, entry := range entries {
		if err := enc.Encode(entry.Key, entry.Value, ""); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal renders entries as canonical user.js in the given order.
func Marshal(entries []document.Entry) ([]byte, error) {
	return marshal(entries, DefaultStatement)
}
