// Package lexer scans Kaleidoscope source into tokens on demand. Tokens
// are produced one at a time so that operator definitions registered by
// the parser mid-statement are visible before the defining body is
// scanned.
package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/takoeight0821/kaleido/operator"
	"github.com/takoeight0821/kaleido/token"
)

type Lexer struct {
	source string
	table  *operator.Table

	start   int // start of current lexeme
	current int // current position in source
	line    int // current line number
}

func New(source string, table *operator.Table) *Lexer {
	return &Lexer{
		source:  source,
		table:   table,
		start:   0,
		current: 0,
		line:    1,
	}
}

// Next returns the next token, or an EOF token once the source is
// exhausted. Every character yields some token; there is no failure path.
func (l *Lexer) Next() token.Token {
	l.skipBlanks()
	l.start = l.current

	if l.isAtEnd() {
		return token.Token{Kind: token.EOF, Lexeme: "", Line: l.line, Literal: nil}
	}

	char := l.advance()
	switch char {
	case '(':
		return l.newToken(token.LEFTPAREN, nil)
	case ')':
		return l.newToken(token.RIGHTPAREN, nil)
	case ',':
		return l.newToken(token.COMMA, nil)
	case ';':
		return l.newToken(token.SEMICOLON, nil)
	}

	if isDigit(char) || (char == '.' && isDigit(l.peek())) {
		return l.number()
	}
	if isAlpha(char) {
		return l.identifier()
	}

	return l.operatorChar(char)
}

// Tokens drains the lexer, including the trailing EOF token.
func (l *Lexer) Tokens() []token.Token {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) skipBlanks() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '#':
			// comment until end of line
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l Lexer) peek() rune {
	if l.isAtEnd() {
		return '\x00'
	}
	runeValue, _ := utf8.DecodeRuneInString(l.source[l.current:])

	return runeValue
}

func (l *Lexer) advance() rune {
	runeValue, width := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += width

	return runeValue
}

func (l *Lexer) newToken(kind token.Kind, literal any) token.Token {
	text := l.source[l.start:l.current]

	return token.Token{Kind: kind, Lexeme: text, Line: l.line, Literal: literal}
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// number scans [0-9.]+ with at most one decimal point. A second dot ends
// the token early instead of raising an error; `1.2.3` scans as `1.2`
// followed by `.3`.
func (l *Lexer) number() token.Token {
	seenDot := strings.HasPrefix(l.source[l.start:l.current], ".")
	for {
		if isDigit(l.peek()) {
			l.advance()

			continue
		}
		if l.peek() == '.' && !seenDot {
			seenDot = true
			l.advance()

			continue
		}

		break
	}

	value, err := strconv.ParseFloat(l.source[l.start:l.current], 64)
	if err != nil {
		// The scan rule admits only digits and one dot with a leading
		// digit or `.digit`, all of which ParseFloat accepts.
		panic("lexer: unparseable number " + l.source[l.start:l.current])
	}

	return l.newToken(token.NUMBER, value)
}

func (l *Lexer) identifier() token.Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}

	if kind, ok := keywords[l.source[l.start:l.current]]; ok {
		return l.newToken(kind, nil)
	}

	return l.newToken(token.IDENT, nil)
}

var keywords = map[string]token.Kind{
	"def":    token.DEF,
	"extern": token.EXTERN,
	"if":     token.IF,
	"then":   token.THEN,
	"else":   token.ELSE,
	"for":    token.FOR,
	"in":     token.IN,
	"unary":  token.UNARY,
	"binary": token.BINARY,
	"var":    token.VAR,
}

// Characters that may carry a user-defined precedence class. Anything
// else non-alphanumeric is emitted as a single default-precedence token;
// that covers the built-ins `+ - * < =`.
const candidateOperators = "!&./:>|"

func (l *Lexer) operatorChar(char rune) token.Token {
	if strings.ContainsRune(candidateOperators, char) {
		if def, ok := l.table.Classify(char); ok {
			return l.newToken(token.OPERATOR, def)
		}
	}

	return l.newToken(token.OPERATOR, nil)
}
