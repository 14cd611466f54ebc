// Package operator holds the session-wide registry of user-defined
// operators. The lexer consults it to tag operator characters with their
// precedence class, and the parser mutates it while parsing a `unary` or
// `binary` prototype so the defining body can already use the operator.
package operator

import "fmt"

type Fixity int

const (
	Unary Fixity = iota
	Binary
)

func (f Fixity) String() string {
	if f == Unary {
		return "unary"
	}

	return "binary"
}

// Precedence classes available to user operators. Built-in operators live
// outside this range and are resolved by the parser from the lexeme.
const (
	MinPrecedence = 1
	MaxPrecedence = 10
)

// Def is one registered operator: a single character with a precedence
// class and a fixity. Last definition wins for the rest of the session.
type Def struct {
	Symbol rune
	Prec   int
	Fixity Fixity
}

func (d Def) String() string {
	return fmt.Sprintf("%v%c/%d", d.Fixity, d.Symbol, d.Prec)
}

type InvalidPrecedenceError struct {
	Prec int
}

func (e InvalidPrecedenceError) Error() string {
	return fmt.Sprintf("invalid precedence %d, must be %d..%d", e.Prec, MinPrecedence, MaxPrecedence)
}

// Table maps operator characters to their definitions. The zero value is
// not usable; call NewTable.
type Table struct {
	defs map[rune]Def
}

func NewTable() *Table {
	return &Table{defs: make(map[rune]Def)}
}

// Define registers or overwrites the definition of symbol. The precedence
// is validated before the table is touched, so a failed Define leaves no
// partial registration behind.
func (t *Table) Define(symbol rune, prec int, fixity Fixity) error {
	if prec < MinPrecedence || prec > MaxPrecedence {
		return InvalidPrecedenceError{Prec: prec}
	}
	t.defs[symbol] = Def{Symbol: symbol, Prec: prec, Fixity: fixity}

	return nil
}

// Classify reports the registered definition of symbol, if any.
func (t *Table) Classify(symbol rune) (Def, bool) {
	def, ok := t.defs[symbol]

	return def, ok
}
