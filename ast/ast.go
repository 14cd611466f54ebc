// Package ast defines the nodes produced by the parser for one
// statement. A node tree is consumed by lowering and discarded; nothing
// here survives across statements.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/takoeight0821/kaleido/token"
)

type Node interface {
	fmt.Stringer
	Base() token.Token
}

// Number is a floating-point literal.
type Number struct {
	Tok   token.Token
	Value float64
}

func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *Number) Base() token.Token {
	return n.Tok
}

var _ Node = &Number{}

// Variable is a reference to a name bound in the symbol table.
type Variable struct {
	Name token.Token
}

func (v Variable) String() string {
	return v.Name.Lexeme
}

func (v *Variable) Base() token.Token {
	return v.Name
}

var _ Node = &Variable{}

// Unary applies a user-defined prefix operator.
type Unary struct {
	Op      token.Token
	Operand Node
}

func (u Unary) String() string {
	return parenthesize(u.Op.Lexeme, u.Operand).String()
}

func (u *Unary) Base() token.Token {
	return u.Op
}

var _ Node = &Unary{}

// Binary applies a built-in or user-defined binary operator. Op `=` is
// assignment; its Left must be a Variable, which lowering checks.
type Binary struct {
	Op    token.Token
	Left  Node
	Right Node
}

func (b Binary) String() string {
	return parenthesize(b.Op.Lexeme, b.Left, b.Right).String()
}

func (b *Binary) Base() token.Token {
	return b.Op
}

var _ Node = &Binary{}

// Call invokes a declared function by name.
type Call struct {
	Callee token.Token
	Args   []Node
}

func (c Call) String() string {
	return parenthesize("call "+c.Callee.Lexeme, concat(c.Args)).String()
}

func (c *Call) Base() token.Token {
	return c.Callee
}

var _ Node = &Call{}

// If is a conditional expression; both branches are always lowered.
type If struct {
	Tok  token.Token
	Cond Node
	Then Node
	Else Node
}

func (i If) String() string {
	return parenthesize("if", i.Cond, i.Then, i.Else).String()
}

func (i *If) Base() token.Token {
	return i.Tok
}

var _ Node = &If{}

// For is a bottom-tested loop: the body runs once before Cond is first
// evaluated. A nil Step defaults to 1.0. The loop's value is 0.0.
type For struct {
	VarName token.Token
	Init    Node
	Cond    Node
	Step    Node
	Body    Node
}

func (f For) String() string {
	if f.Step == nil {
		return parenthesize("for "+f.VarName.Lexeme, f.Init, f.Cond, f.Body).String()
	}

	return parenthesize("for "+f.VarName.Lexeme, f.Init, f.Cond, f.Step, f.Body).String()
}

func (f *For) Base() token.Token {
	return f.VarName
}

var _ Node = &For{}

// VarDef is one `name` or `name = init` entry of a var block.
type VarDef struct {
	Name token.Token
	Init Node // nil means 0.0
}

func (v VarDef) String() string {
	if v.Init == nil {
		return parenthesize(v.Name.Lexeme).String()
	}

	return parenthesize(v.Name.Lexeme, v.Init).String()
}

// VarIn introduces local mutable bindings scoped to Body.
type VarIn struct {
	Tok  token.Token
	Defs []VarDef
	Body Node
}

func (v VarIn) String() string {
	defs := make([]fmt.Stringer, len(v.Defs))
	for i, def := range v.Defs {
		defs[i] = def
	}

	return parenthesize("var", concat(defs), v.Body).String()
}

func (v *VarIn) Base() token.Token {
	return v.Tok
}

var _ Node = &VarIn{}

// Prototype declares a function: a name and one double parameter per
// entry in Params. Operator definitions are encoded by the synthesized
// names `unary<op>` and `binary<op>`. An empty name marks the anonymous
// wrapper around a top-level expression.
type Prototype struct {
	Tok    token.Token
	Name   string
	Params []token.Token
}

func (p Prototype) String() string {
	params := make([]fmt.Stringer, len(p.Params))
	for i, param := range p.Params {
		params[i] = word(param.Lexeme)
	}

	return parenthesize("proto", word(p.Name), parenthesize("", params...)).String()
}

func (p *Prototype) Base() token.Token {
	return p.Tok
}

var _ Node = &Prototype{}

// Function pairs a prototype with a body expression.
type Function struct {
	Proto *Prototype
	Body  Node
}

func (f Function) String() string {
	return parenthesize("def", f.Proto, f.Body).String()
}

func (f *Function) Base() token.Token {
	return f.Proto.Base()
}

// Anonymous reports whether f wraps a bare top-level expression.
func (f *Function) Anonymous() bool {
	return f.Proto.Name == ""
}

var _ Node = &Function{}

type word string

func (w word) String() string {
	return string(w)
}

// parenthesize returns a fmt.Stringer for `(head elem elem ...)`; empty
// heads and empty elements are skipped.
func parenthesize(head string, elems ...fmt.Stringer) fmt.Stringer {
	var b strings.Builder
	b.WriteString("(")
	elemsStr := concat(elems).String()
	if head != "" {
		b.WriteString(head)
	}
	if elemsStr != "" {
		if head != "" {
			b.WriteString(" ")
		}
		b.WriteString(elemsStr)
	}
	b.WriteString(")")

	return &b
}

// concat joins the non-empty strings of elems with single spaces.
func concat[T fmt.Stringer](elems []T) fmt.Stringer {
	var b strings.Builder
	for _, elem := range elems {
		str := elem.String()
		if str == "" {
			continue
		}
		if b.Len() != 0 {
			b.WriteString(" ")
		}
		b.WriteString(str)
	}

	return &b
}
