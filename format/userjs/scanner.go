package userjs

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/yacchi/prefstack/document"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokOther
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokComma:
		return `","`
	case tokSemicolon:
		return `";"`
	default:
		return "character"
	}
}

type token struct {
	kind tokenKind
	text string // raw text; decoded contents for tokString
	pos  document.Pos
}

// scanner splits user.js text into tokens, skipping whitespace and
// "//", "#" and "/* */" comments.
type scanner struct {
	src  []byte
	name string
	off  int
	line int
	col  int
}

func newScanner(name string, src []byte) *scanner {
	return &scanner{src: src, name: name, line: 1, col: 1}
}

func (s *scanner) pos() document.Pos {
	return document.Pos{Source: s.name, Line: s.line, Column: s.col}
}

func (s *scanner) peekByte(n int) byte {
	if s.off+n < len(s.src) {
		return s.src[s.off+n]
	}
	return 0
}

func (s *scanner) advance() byte {
	c := s.src[s.off]
	s.off++
	if c == '\n' {
		s.line++
		s.col = 1
	} else if c < 0x80 || c >= 0xC0 {
		// count runes, not continuation bytes
		s.col++
	}
	return c
}

func (s *scanner) skipSpaceAndComments() error {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			s.advance()
		case c == '#' || (c == '/' && s.peekByte(1) == '/'):
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.advance()
			}
		case c == '/' && s.peekByte(1) == '*':
			start := s.pos()
			s.advance()
			s.advance()
			closed := false
			for s.off < len(s.src) {
				if s.src[s.off] == '*' && s.peekByte(1) == '/' {
					s.advance()
					s.advance()
					closed = true
					break
				}
				s.advance()
			}
			if !closed {
				return document.Malformed(start, document.ReasonUnterminatedStatement, "unterminated block comment")
			}
		case s.off == 0 && c == 0xEF && s.peekByte(1) == 0xBB && s.peekByte(2) == 0xBF:
			// UTF-8 byte order mark
			s.off += 3
		default:
			return nil
		}
	}
	return nil
}

// next returns the next token. Lexical errors are *document.MalformedEntryError.
func (s *scanner) next() (token, error) {
	if err := s.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	start := s.pos()
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := s.src[s.off]
	switch {
	case c == '(':
		s.advance()
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		s.advance()
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		s.advance()
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == ';':
		s.advance()
		return token{kind: tokSemicolon, text: ";", pos: start}, nil
	case c == '"':
		text, err := s.scanString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text, pos: start}, nil
	case isDigit(c) || ((c == '-' || c == '+') && (isDigit(s.peekByte(1)) || s.peekByte(1) == '.')) || c == '.':
		begin := s.off
		s.advance()
		for s.off < len(s.src) && isNumberTail(s.src[s.off]) {
			s.advance()
		}
		return token{kind: tokNumber, text: string(s.src[begin:s.off]), pos: start}, nil
	case isIdentStart(c):
		begin := s.off
		for s.off < len(s.src) && isIdentPart(s.src[s.off]) {
			s.advance()
		}
		return token{kind: tokIdent, text: string(s.src[begin:s.off]), pos: start}, nil
	}

	r, _ := utf8.DecodeRune(s.src[s.off:])
	s.advance()
	return token{kind: tokOther, text: string(r), pos: start}, nil
}

// scanString reads a double-quoted string starting at the opening quote and
// returns its decoded contents.
func (s *scanner) scanString() (string, error) {
	start := s.pos()
	s.advance() // opening quote

	var sb strings.Builder
	for {
		if s.off >= len(s.src) {
			return "", document.Malformed(start, document.ReasonUnterminatedStatement, "unterminated string")
		}
		c := s.src[s.off]
		switch {
		case c == '"':
			s.advance()
			return sb.String(), nil
		case c == '\n':
			return "", document.Malformed(start, document.ReasonUnterminatedStatement, "newline in string")
		case c == '\\':
			escPos := s.pos()
			s.advance()
			if s.off >= len(s.src) {
				return "", document.Malformed(start, document.ReasonUnterminatedStatement, "unterminated string")
			}
			e := s.advance()
			switch e {
			case '"', '\\', '/', '\'':
				sb.WriteByte(e)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				r, err := s.scanUnicodeEscape(escPos)
				if err != nil {
					return "", err
				}
				sb.WriteRune(r)
			default:
				return "", document.Malformed(escPos, document.ReasonUnknownValueType,
					"unknown escape sequence \\"+string(rune(e)))
			}
		default:
			r, size := utf8.DecodeRune(s.src[s.off:])
			if r == utf8.RuneError && size <= 1 {
				return "", document.Malformed(s.pos(), document.ReasonUnknownValueType, "invalid UTF-8 in string")
			}
			for range size {
				s.advance()
			}
			sb.WriteRune(r)
		}
	}
}

// scanUnicodeEscape reads the hex digits after "\u", combining a UTF-16
// surrogate pair when one follows.
func (s *scanner) scanUnicodeEscape(escPos document.Pos) (rune, error) {
	hi, ok := s.scanHex4()
	if !ok {
		return 0, document.Malformed(escPos, document.ReasonUnknownValueType, `invalid \u escape`)
	}
	if !utf16.IsSurrogate(hi) {
		return hi, nil
	}
	if s.peekByte(0) != '\\' || s.peekByte(1) != 'u' {
		return 0, document.Malformed(escPos, document.ReasonUnknownValueType, "unpaired surrogate in \\u escape")
	}
	s.advance()
	s.advance()
	lo, ok := s.scanHex4()
	if !ok {
		return 0, document.Malformed(escPos, document.ReasonUnknownValueType, `invalid \u escape`)
	}
	r := utf16.DecodeRune(hi, lo)
	if r == utf8.RuneError {
		return 0, document.Malformed(escPos, document.ReasonUnknownValueType, "invalid surrogate pair in \\u escape")
	}
	return r, nil
}

func (s *scanner) scanHex4() (rune, bool) {
	if s.off+4 > len(s.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(s.src[s.off:s.off+4]), 16, 32)
	if err != nil {
		return 0, false
	}
	for range 4 {
		s.advance()
	}
	return rune(v), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// isNumberTail accepts the characters a malformed number might continue
// with, so "1.5" or "0x1F" is reported as one token.
func isNumberTail(c byte) bool {
	return isIdentPart(c) || c == '.' || c == '+' || c == '-'
}
