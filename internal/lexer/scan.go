// Package lexer tokenizes one LCC assembly source line at a time into
// the shape internal/token.Line describes (§4.1).
package lexer

import (
	"strings"

	"github.com/xyproto/lcc/internal/asmerr"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokChar
	tokComma
	tokColon
)

type tok struct {
	kind tokKind
	text string  // raw text for ident/number
	ival int32   // resolved value for number
	bval byte    // resolved value for char
}

// scanner splits one comment-stripped source line into tokens.
type scanner struct {
	file string
	line int
	src  string
	pos  int
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '@' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// stripComment returns src up to (not including) the first ';' that is
// not inside a single- or double-quoted literal.
func stripComment(src string) string {
	inStr, inChar := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && (inStr || inChar) && i+1 < len(src):
			i++ // skip escaped char
		case c == '"' && !inChar:
			inStr = !inStr
		case c == '\'' && !inStr:
			inChar = !inChar
		case c == ';' && !inStr && !inChar:
			return src[:i]
		}
	}
	return src
}

func (s *scanner) errf(format string, args ...any) error {
	return asmerr.AtLine(asmerr.Syntax, s.file, s.line, format, args...)
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// tokens scans the whole (already comment-stripped) line.
func (s *scanner) tokens() ([]tok, error) {
	var out []tok
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			break
		}
		c := s.src[s.pos]
		switch {
		case c == ',':
			out = append(out, tok{kind: tokComma})
			s.pos++
		case c == ':':
			out = append(out, tok{kind: tokColon})
			s.pos++
		case c == '"':
			t, err := s.scanString()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case c == '\'':
			t, err := s.scanChar()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case isDigit(c) || (c == '-' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
			t, err := s.scanNumber()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case isIdentStart(c) || (c == '.' && s.pos+1 < len(s.src) && isIdentStart(s.src[s.pos+1])):
			// A leading '.' starts a directive name (.word, .global, ...).
			start := s.pos
			s.pos++
			for s.pos < len(s.src) && isIdentCont(s.src[s.pos]) {
				s.pos++
			}
			out = append(out, tok{kind: tokIdent, text: s.src[start:s.pos]})
		default:
			return nil, s.errf("unexpected character %q", c)
		}
	}
	return out, nil
}

func (s *scanner) scanString() (tok, error) {
	s.pos++ // opening quote
	var b strings.Builder
	for {
		if s.pos >= len(s.src) {
			return tok{}, s.errf("unterminated string literal")
		}
		c := s.src[s.pos]
		if c == '"' {
			s.pos++
			return tok{kind: tokString, text: b.String()}, nil
		}
		if c == '\\' {
			s.pos++
			e, err := s.scanEscape()
			if err != nil {
				return tok{}, err
			}
			b.WriteByte(e)
			continue
		}
		b.WriteByte(c)
		s.pos++
	}
}

func (s *scanner) scanChar() (tok, error) {
	s.pos++ // opening quote
	if s.pos >= len(s.src) {
		return tok{}, s.errf("unterminated character literal")
	}
	var v byte
	if s.src[s.pos] == '\\' {
		s.pos++
		e, err := s.scanEscape()
		if err != nil {
			return tok{}, err
		}
		v = e
	} else {
		v = s.src[s.pos]
		s.pos++
	}
	if s.pos >= len(s.src) || s.src[s.pos] != '\'' {
		return tok{}, s.errf("character literal must be a single character")
	}
	s.pos++
	return tok{kind: tokChar, bval: v}, nil
}

func (s *scanner) scanEscape() (byte, error) {
	if s.pos >= len(s.src) {
		return 0, s.errf("dangling escape")
	}
	c := s.src[s.pos]
	s.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case '0':
		return 0, nil
	default:
		return 0, s.errf("unknown escape sequence \\%c", c)
	}
}

func (s *scanner) scanNumber() (tok, error) {
	start := s.pos
	if s.src[s.pos] == '-' {
		s.pos++
	}
	switch {
	case s.pos+1 < len(s.src) && s.src[s.pos] == '0' && (s.src[s.pos+1] == 'x' || s.src[s.pos+1] == 'X'):
		s.pos += 2
		hstart := s.pos
		for s.pos < len(s.src) && isHex(s.src[s.pos]) {
			s.pos++
		}
		if s.pos == hstart {
			return tok{}, s.errf("malformed hex literal %q", s.src[start:s.pos])
		}
		v, err := parseHex(s.src[hstart:s.pos])
		if err != nil {
			return tok{}, s.errf("malformed hex literal: %v", err)
		}
		if s.src[start] == '-' {
			v = -v
		}
		return tok{kind: tokNumber, text: s.src[start:s.pos], ival: v}, nil
	case s.pos+1 < len(s.src) && s.src[s.pos] == '0' && (s.src[s.pos+1] == 'b' || s.src[s.pos+1] == 'B'):
		s.pos += 2
		bstart := s.pos
		for s.pos < len(s.src) && (s.src[s.pos] == '0' || s.src[s.pos] == '1') {
			s.pos++
		}
		if s.pos == bstart {
			return tok{}, s.errf("malformed binary literal %q", s.src[start:s.pos])
		}
		v, err := parseBin(s.src[bstart:s.pos])
		if err != nil {
			return tok{}, s.errf("malformed binary literal: %v", err)
		}
		if s.src[start] == '-' {
			v = -v
		}
		return tok{kind: tokNumber, text: s.src[start:s.pos], ival: v}, nil
	default:
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		v, err := parseDec(s.src[start:s.pos])
		if err != nil {
			return tok{}, s.errf("malformed decimal literal: %v", err)
		}
		return tok{kind: tokNumber, text: s.src[start:s.pos], ival: v}, nil
	}
}

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func parseDec(s string) (int32, error) { return parseSigned(s, 10) }
func parseHex(s string) (int32, error) { return parseSigned(s, 16) }
func parseBin(s string) (int32, error) { return parseSigned(s, 2) }

func parseSigned(s string, base int32) (int32, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v int64
	for i := 0; i < len(s); i++ {
		d, err := digitVal(s[i])
		if err != nil || int32(d) >= base {
			return 0, err
		}
		v = v*int64(base) + int64(d)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

func digitVal(b byte) (int32, error) {
	switch {
	case b >= '0' && b <= '9':
		return int32(b - '0'), nil
	case b >= 'a' && b <= 'f':
		return int32(b-'a') + 10, nil
	case b >= 'A' && b <= 'F':
		return int32(b-'A') + 10, nil
	default:
		return 0, asmerr.New(asmerr.Syntax, asmerr.Site{Address: -1}, "invalid digit %q", b)
	}
}
