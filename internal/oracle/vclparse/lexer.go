// Package vclparse is the in-process oracle: a lexer and recursive-descent
// parser for the Fastly-dialect VCL subset the intelligence layer consumes.
// It emits the same tree schema and the same 1-based token positions the
// external linter's JSON dump does, so everything above the oracle boundary
// is agnostic to which implementation produced the tree.
package vclparse

import (
	"strings"

	"github.com/vcltools/vci/internal/vast"
)

// Additional token types private to the lexer/parser handshake. Punctuation
// tokens use their literal text as the type so the parser can match on it
// directly.
const (
	tokenEOF        = "EOF"
	tokenIllegal    = "ILLEGAL"
	tokenLongString = "STRING_LONG"
	tokenPercent    = "PERCENT"
)

type lexer struct {
	src    []byte
	pos    int
	line   int // 1-based
	col    int // 1-based
	peeked *vast.Token
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peek() vast.Token {
	if l.peeked == nil {
		t := l.lex()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *lexer) next() vast.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.lex()
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) at(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// skipTrivia consumes whitespace and all three comment forms. Comments are
// not tokenized; the folding provider rescans raw text for them.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.at(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.at(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.at(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) token(typ, lit string, line, col, off int) vast.Token {
	return vast.Token{Type: typ, Literal: lit, Line: line, Column: col, Offset: off}
}

func (l *lexer) lex() vast.Token {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return l.token(tokenEOF, "", l.line, l.col, l.pos)
	}

	line, col, off := l.line, l.col, l.pos
	c := l.src[l.pos]

	switch {
	case c == '{' && l.at(1) == '"':
		return l.lexLongString(line, col, off)
	case c == '"':
		return l.lexString(line, col, off)
	case isDigit(c):
		return l.lexNumber(line, col, off)
	case isIdentStart(c):
		return l.lexIdent(line, col, off)
	}

	switch c {
	case '{', '}', '(', ')', ';', ',', ':', '.':
		l.advance()
		return l.token(string(c), string(c), line, col, off)
	case '%':
		l.advance()
		return l.token(tokenPercent, "%", line, col, off)
	case '!':
		l.advance()
		if l.pos < len(l.src) && (l.src[l.pos] == '~' || l.src[l.pos] == '=') {
			op := "!" + string(l.advance())
			return l.token(vast.TokenOp, op, line, col, off)
		}
		return l.token(vast.TokenOp, "!", line, col, off)
	case '=':
		l.advance()
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.advance()
			return l.token(vast.TokenOp, "==", line, col, off)
		}
		return l.token("=", "=", line, col, off)
	case '~':
		l.advance()
		return l.token(vast.TokenOp, "~", line, col, off)
	case '&':
		l.advance()
		if l.pos < len(l.src) && l.src[l.pos] == '&' {
			l.advance()
			if l.pos < len(l.src) && l.src[l.pos] == '=' {
				l.advance()
				return l.token("=", "&&=", line, col, off)
			}
			return l.token(vast.TokenOp, "&&", line, col, off)
		}
		return l.token(tokenIllegal, "&", line, col, off)
	case '|':
		l.advance()
		if l.pos < len(l.src) && l.src[l.pos] == '|' {
			l.advance()
			if l.pos < len(l.src) && l.src[l.pos] == '=' {
				l.advance()
				return l.token("=", "||=", line, col, off)
			}
			return l.token(vast.TokenOp, "||", line, col, off)
		}
		return l.token(tokenIllegal, "|", line, col, off)
	case '+', '-', '*', '/':
		l.advance()
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.advance()
			return l.token("=", string(c)+"=", line, col, off)
		}
		return l.token(vast.TokenOp, string(c), line, col, off)
	case '<', '>':
		l.advance()
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.advance()
			return l.token(vast.TokenOp, string(c)+"=", line, col, off)
		}
		return l.token(vast.TokenOp, string(c), line, col, off)
	}

	l.advance()
	return l.token(tokenIllegal, string(c), line, col, off)
}

// lexString consumes a plain double-quoted string. VCL strings have no
// escape sequences; a backslash is a literal character. The token position
// points at the opening quote, the literal holds the logical value only.
func (l *lexer) lexString(line, col, off int) vast.Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '"' && l.src[l.pos] != '\n' {
		b.WriteByte(l.advance())
	}
	if l.pos < len(l.src) && l.src[l.pos] == '"' {
		l.advance()
	}
	return l.token(vast.TokenString, b.String(), line, col, off)
}

// lexLongString consumes the braced {"..."} form, which may span lines and
// contain double quotes.
func (l *lexer) lexLongString(line, col, off int) vast.Token {
	l.advance() // {
	l.advance() // "
	var b strings.Builder
	for l.pos < len(l.src) {
		if l.src[l.pos] == '"' && l.at(1) == '}' {
			l.advance()
			l.advance()
			break
		}
		b.WriteByte(l.advance())
	}
	return l.token(tokenLongString, b.String(), line, col, off)
}

func (l *lexer) lexNumber(line, col, off int) vast.Token {
	var b strings.Builder
	isFloat := false
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		if l.src[l.pos] == '.' {
			// A second dot ends the number (e.g. inside an IP handled as
			// string elsewhere).
			if isFloat {
				break
			}
			if !isDigit(l.at(1)) {
				break
			}
			isFloat = true
		}
		b.WriteByte(l.advance())
	}

	// Relative-time suffix turns the number into an RTIME literal.
	if l.pos < len(l.src) {
		switch l.src[l.pos] {
		case 's', 'm', 'h', 'd', 'y':
			suffix := string(l.advance())
			if suffix == "m" && l.pos < len(l.src) && l.src[l.pos] == 's' {
				suffix += string(l.advance())
			}
			return l.token(vast.TokenRTime, b.String()+suffix, line, col, off)
		}
	}

	if isFloat {
		return l.token(vast.TokenFloat, b.String(), line, col, off)
	}
	return l.token(vast.TokenInt, b.String(), line, col, off)
}

func (l *lexer) lexIdent(line, col, off int) vast.Token {
	var b strings.Builder
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		b.WriteByte(l.advance())
	}
	lit := b.String()
	if lit == "true" || lit == "false" {
		return l.token(vast.TokenBool, lit, line, col, off)
	}
	return l.token(vast.TokenIdent, lit, line, col, off)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentPart includes dots (dotted variable paths) and hyphens (header
// names stay one token: req.http.Cache-Control).
func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '-'
}
