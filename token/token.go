package token

import "fmt"

//go:generate go run golang.org/x/tools/cmd/stringer@v0.13.0 -type=Kind
type Kind int

const (
	EOF Kind = iota

	// Single-character tokens.
	LEFTPAREN
	RIGHTPAREN
	COMMA
	SEMICOLON

	// Literals, identifiers and operator characters.
	IDENT
	NUMBER
	OPERATOR

	// Keywords.
	DEF
	EXTERN
	IF
	THEN
	ELSE
	FOR
	IN
	UNARY
	BINARY
	VAR
)

// Token is one lexeme of a statement.
// For NUMBER tokens, Literal holds the float64 value.
// For OPERATOR tokens, Literal holds the operator.Def assigned by the
// lexer's classification, or nil when the character has the default
// precedence class.
type Token struct {
	Kind    Kind
	Lexeme  string
	Line    int
	Literal any
}

func (t Token) String() string {
	return fmt.Sprintf("{%v, %q, %d, %v}", t.Kind, t.Lexeme, t.Line, t.Literal)
}

// Op returns the operator character of an OPERATOR token.
func (t Token) Op() rune {
	for _, c := range t.Lexeme {
		return c
	}

	return '\x00'
}
