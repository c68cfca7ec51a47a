// Package userjs implements the host preference statement format used by
// user.js / prefs.js files:
//
//	// comment
//	user_pref("browser.startup.page", 3);
//	user_pref("browser.download.dir", "/home/me/download"); // trailing comment
//
// Values are true, false, a signed decimal integer, or a double-quoted string
// with backslash escapes. The format is whitespace-insensitive; a statement
// may span lines.
package userjs

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format"
	"github.com/yacchi/prefstack/pref"
)

// DefaultStatement is the statement name written and accepted by default.
const DefaultStatement = "user_pref"

// Option configures a user.js Parser.
type Option func(*options)

type options struct {
	statements []string
}

// WithStatements replaces the accepted statement names.
// The first name is the one written by MarshalTestData.
//
// Example:
//
//	parser := userjs.NewParser(userjs.WithStatements("pref", "user_pref"))
func WithStatements(names ...string) Option {
	return func(o *options) {
		if len(names) > 0 {
			o.statements = append([]string(nil), names...)
		}
	}
}

func newOptions(opts []Option) options {
	o := options{statements: []string{DefaultStatement}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewParser creates a new user.js parser.
//
// Example:
//
//	parser := userjs.NewParser()
//	l, err := layer.Load(ctx, "base", fs.New("base.js"), parser)
func NewParser(opts ...Option) document.Parser {
	o := newOptions(opts)
	return format.NewParser(document.FormatUserJS,
		func(name string, data []byte) ([]document.Entry, error) {
			return parse(name, data, o.statements)
		},
		func(entries []document.Entry) ([]byte, error) {
			return marshal(entries, o.statements[0])
		},
	)
}

// Parse parses user.js data accepting only the default statement name.
func Parse(name string, data []byte) ([]document.Entry, error) {
	return parse(name, data, []string{DefaultStatement})
}

func parse(name string, data []byte, statements []string) ([]document.Entry, error) {
	accepted := make(map[string]bool, len(statements))
	for _, s := range statements {
		accepted[s] = true
	}

	p := &stmtParser{sc: newScanner(name, data), accepted: accepted}
	var entries []document.Entry
	for {
		tok, err := p.sc.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return entries, nil
		}
		entry, err := p.statement(tok)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

type stmtParser struct {
	sc       *scanner
	accepted map[string]bool
}

// statement parses one `name("key", value);` statement whose name token
// has already been read.
func (p *stmtParser) statement(name token) (document.Entry, error) {
	if name.kind != tokIdent {
		return document.Entry{}, document.Malformed(name.pos, document.ReasonUnexpectedToken,
			fmt.Sprintf("expected statement, found %s %q", name.kind, name.text))
	}
	if !p.accepted[name.text] {
		return document.Entry{}, document.Malformed(name.pos, document.ReasonUnexpectedToken,
			fmt.Sprintf("unknown statement %q", name.text))
	}

	if _, err := p.expect(tokLParen, name); err != nil {
		return document.Entry{}, err
	}

	keyTok, err := p.sc.next()
	if err != nil {
		return document.Entry{}, err
	}
	switch keyTok.kind {
	case tokString:
	case tokEOF:
		return document.Entry{}, unterminated(name, "input ended before key")
	default:
		return document.Entry{}, document.Malformed(keyTok.pos, document.ReasonUnexpectedToken,
			fmt.Sprintf("expected quoted key, found %s %q", keyTok.kind, keyTok.text))
	}
	key := pref.Key(keyTok.text)
	if err := key.Validate(); err != nil {
		pos := keyTok.pos
		var ke *pref.KeyError
		if errors.As(err, &ke) && ke.Offset >= 0 {
			pos.Column += 1 + ke.Offset
		}
		return document.Entry{}, document.Malformed(pos, document.ReasonIllegalKeyCharacter, err.Error())
	}

	if _, err := p.expect(tokComma, name); err != nil {
		return document.Entry{}, err
	}

	value, err := p.value(name)
	if err != nil {
		return document.Entry{}, err
	}

	rparen, err := p.sc.next()
	if err != nil {
		return document.Entry{}, err
	}
	if rparen.kind != tokRParen {
		if rparen.kind == tokEOF {
			return document.Entry{}, unterminated(name, `input ended before ")"`)
		}
		return document.Entry{}, document.Malformed(rparen.pos, document.ReasonUnterminatedStatement,
			fmt.Sprintf(`expected ")", found %s %q`, rparen.kind, rparen.text))
	}

	semi, err := p.sc.next()
	if err != nil {
		return document.Entry{}, err
	}
	if semi.kind != tokSemicolon {
		return document.Entry{}, document.Malformed(rparen.pos, document.ReasonUnterminatedStatement,
			`missing ";" after statement`)
	}

	return document.Entry{Key: key, Value: value, Pos: name.pos}, nil
}

func (p *stmtParser) expect(kind tokenKind, stmt token) (token, error) {
	tok, err := p.sc.next()
	if err != nil {
		return token{}, err
	}
	if tok.kind == kind {
		return tok, nil
	}
	if tok.kind == tokEOF {
		return token{}, unterminated(stmt, "input ended before "+kind.String())
	}
	return token{}, document.Malformed(tok.pos, document.ReasonUnexpectedToken,
		fmt.Sprintf("expected %s, found %s %q", kind, tok.kind, tok.text))
}

func (p *stmtParser) value(stmt token) (pref.Value, error) {
	tok, err := p.sc.next()
	if err != nil {
		return pref.Value{}, err
	}
	switch tok.kind {
	case tokString:
		return pref.String(tok.text), nil
	case tokNumber:
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return pref.Value{}, document.Malformed(tok.pos, document.ReasonUnknownValueType,
				fmt.Sprintf("%q is not a 64-bit decimal integer", tok.text))
		}
		return pref.Int(n), nil
	case tokIdent:
		switch tok.text {
		case "true":
			return pref.Bool(true), nil
		case "false":
			return pref.Bool(false), nil
		}
		return pref.Value{}, document.Malformed(tok.pos, document.ReasonUnknownValueType,
			fmt.Sprintf("unexpected %q", tok.text))
	case tokEOF:
		return pref.Value{}, unterminated(stmt, "input ended before value")
	}
	return pref.Value{}, document.Malformed(tok.pos, document.ReasonUnknownValueType,
		fmt.Sprintf("unexpected %s %q", tok.kind, tok.text))
}

func unterminated(stmt token, detail string) error {
	return document.Malformed(stmt.pos, document.ReasonUnterminatedStatement, detail)
}

// ParseValue parses a single value literal: true, false, a signed decimal
// integer or a double-quoted string with escapes.
func ParseValue(s string) (pref.Value, error) {
	p := &stmtParser{sc: newScanner("", []byte(s))}
	start := token{pos: document.Pos{Line: 1, Column: 1}}
	v, err := p.value(start)
	if err != nil {
		return pref.Value{}, err
	}
	tok, err := p.sc.next()
	if err != nil {
		return pref.Value{}, err
	}
	if tok.kind != tokEOF {
		return pref.Value{}, document.Malformed(tok.pos, document.ReasonUnexpectedToken,
			fmt.Sprintf("unexpected %s %q after value", tok.kind, tok.text))
	}
	return v, nil
}
