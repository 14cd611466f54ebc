// Package parser builds one statement's AST at a time from a lazy token
// stream. Binary expressions use precedence climbing; the precedence of a
// user-defined operator travels with its token, assigned by the lexer from
// the operator table. Parsing a `unary`/`binary` prototype registers the
// operator before the defining body is scanned, so the body can use it.
package parser

import (
	"errors"
	"fmt"

	"github.com/takoeight0821/kaleido/ast"
	"github.com/takoeight0821/kaleido/lexer"
	"github.com/takoeight0821/kaleido/operator"
	"github.com/takoeight0821/kaleido/token"
	"github.com/takoeight0821/kaleido/utils"
)

type Parser struct {
	lexer *lexer.Lexer
	table *operator.Table

	tok  token.Token // lookahead
	prev token.Token
	err  error
}

func New(lx *lexer.Lexer, table *operator.Table) *Parser {
	p := &Parser{lexer: lx, table: table}
	p.tok = lx.Next()

	return p
}

// ParseStatement parses the next top-level statement and its terminating
// `;`. It returns (nil, nil) at end of input. On error the input is
// discarded up to and including the next `;` so the caller can continue
// with the following statement.
func (p *Parser) ParseStatement() (ast.Node, error) {
	p.err = nil
	if p.IsAtEnd() {
		return nil, nil
	}

	node := p.statement()
	if p.err != nil {
		p.synchronize()

		return nil, p.err
	}

	return node, nil
}

// statement = "def" prototype expr ";" | "extern" prototype ";" | expr ";" ;
func (p *Parser) statement() ast.Node {
	var node ast.Node
	switch {
	case p.match(token.DEF):
		p.advance()
		proto := p.prototype()
		body := p.expression()
		node = &ast.Function{Proto: proto, Body: body}
	case p.match(token.EXTERN):
		p.advance()
		node = p.prototype()
	default:
		expr := p.expression()
		// A bare expression becomes the body of an anonymous
		// zero-argument function.
		node = &ast.Function{
			Proto: &ast.Prototype{Tok: expr.Base(), Name: ""},
			Body:  expr,
		}
	}
	p.consume(token.SEMICOLON)

	return node
}

// prototype = IDENT params
//           | "unary" OPERATOR NUMBER? params
//           | "binary" OPERATOR NUMBER params ;
// params = "(" IDENT* ")" ;
func (p *Parser) prototype() *ast.Prototype {
	switch {
	case p.match(token.IDENT):
		name := p.advance()
		params := p.params()

		return &ast.Prototype{Tok: name, Name: name.Lexeme, Params: params}
	case p.match(token.UNARY):
		tok := p.advance()
		op := p.operatorSymbol()
		prec := operator.MaxPrecedence
		if p.match(token.NUMBER) {
			prec = int(p.advance().Literal.(float64))
		}
		p.define(op, prec, operator.Unary)
		params := p.params()
		p.checkOperandCount(op, 1, len(params))

		return &ast.Prototype{Tok: tok, Name: "unary" + op.Lexeme, Params: params}
	case p.match(token.BINARY):
		tok := p.advance()
		op := p.operatorSymbol()
		prec := 0
		if num := p.consume(token.NUMBER); num.Kind == token.NUMBER {
			prec = int(num.Literal.(float64))
		}
		p.define(op, prec, operator.Binary)
		params := p.params()
		p.checkOperandCount(op, 2, len(params))

		return &ast.Prototype{Tok: tok, Name: "binary" + op.Lexeme, Params: params}
	default:
		p.recover(unexpectedToken(p.tok, "identifier", "`unary`", "`binary`"))

		return &ast.Prototype{Tok: p.tok}
	}
}

// define registers the operator before any token of the defining body is
// pulled from the lexer; a recursive body depends on that ordering. A
// rejected precedence leaves the table untouched, but an operator that
// was registered stays registered even if the rest of its statement
// fails later.
func (p *Parser) define(op token.Token, prec int, fixity operator.Fixity) {
	if err := p.table.Define(op.Op(), prec, fixity); err != nil {
		p.recover(utils.PosError{Where: op, Err: err})
	}
}

type OperandCountError struct {
	Want int
	Got  int
}

func (e OperandCountError) Error() string {
	return fmt.Sprintf("expected %d operands, got %d", e.Want, e.Got)
}

func (p *Parser) checkOperandCount(op token.Token, want, got int) {
	if want != got {
		p.recover(utils.PosError{Where: op, Err: OperandCountError{Want: want, Got: got}})
	}
}

func (p *Parser) operatorSymbol() token.Token {
	if p.match(token.OPERATOR) {
		return p.advance()
	}
	p.recover(unexpectedToken(p.tok, "operator"))

	return p.tok
}

func (p *Parser) params() []token.Token {
	p.consume(token.LEFTPAREN)
	var params []token.Token
	for p.match(token.IDENT) {
		params = append(params, p.advance())
	}
	p.consume(token.RIGHTPAREN)

	return params
}

// expr = unary (BINOP unary)* with precedence climbing ;
func (p *Parser) expression() ast.Node {
	lhs := p.unary()

	return p.binOpRHS(operator.MinPrecedence, lhs)
}

func (p *Parser) binOpRHS(minPrec int, lhs ast.Node) ast.Node {
	for {
		prec := binaryPrecedence(p.tok)
		if prec < minPrec {
			return lhs
		}

		op := p.advance()
		rhs := p.unary()

		// All operators are left-associative: recurse only for a
		// strictly tighter-binding right neighbor.
		if binaryPrecedence(p.tok) > prec {
			rhs = p.binOpRHS(prec+1, rhs)
		}

		lhs = &ast.Binary{Op: op, Left: lhs, Right: rhs}
	}
}

// Precedence of the built-in operators. User classes 1..10 share the
// scale below `+`; `=` binds loosest.
var builtinPrecedence = map[string]int{
	"=": 2,
	"<": 10,
	"+": 20,
	"-": 20,
	"*": 40,
}

// binaryPrecedence reports how tightly tok binds in binary position, or
// -1 if it cannot be a binary operator here.
func binaryPrecedence(tok token.Token) int {
	if tok.Kind != token.OPERATOR {
		return -1
	}
	if def, ok := tok.Literal.(operator.Def); ok {
		if def.Fixity == operator.Binary {
			return def.Prec
		}

		return -1
	}
	if prec, ok := builtinPrecedence[tok.Lexeme]; ok {
		return prec
	}

	return -1
}

// unary = OPERATOR unary | primary ;
// Only operators registered with unary fixity start a unary expression;
// they bind tighter than any binary level.
func (p *Parser) unary() ast.Node {
	if p.match(token.OPERATOR) {
		if def, ok := p.tok.Literal.(operator.Def); ok && def.Fixity == operator.Unary {
			op := p.advance()

			return &ast.Unary{Op: op, Operand: p.unary()}
		}
	}

	return p.primary()
}

// primary = NUMBER | IDENT | IDENT "(" args ")" | "(" expr ")"
//         | ifExpr | forExpr | varExpr ;
func (p *Parser) primary() ast.Node {
	//exhaustive:ignore
	switch tok := p.advance(); tok.Kind {
	case token.NUMBER:
		return &ast.Number{Tok: tok, Value: tok.Literal.(float64)}
	case token.IDENT:
		if p.match(token.LEFTPAREN) {
			return p.callTail(tok)
		}

		return &ast.Variable{Name: tok}
	case token.LEFTPAREN:
		expr := p.expression()
		p.consume(token.RIGHTPAREN)

		return expr
	case token.IF:
		return p.ifExpr(tok)
	case token.FOR:
		return p.forExpr(tok)
	case token.VAR:
		return p.varExpr(tok)
	default:
		p.recover(unexpectedToken(tok, "expression"))

		return &ast.Number{Tok: tok}
	}
}

// args = (expr ("," expr)*)? ;
func (p *Parser) callTail(callee token.Token) ast.Node {
	p.consume(token.LEFTPAREN)
	var args []ast.Node
	if !p.match(token.RIGHTPAREN) {
		args = append(args, p.expression())
		for p.match(token.COMMA) {
			p.advance()
			args = append(args, p.expression())
		}
	}
	p.consume(token.RIGHTPAREN)

	return &ast.Call{Callee: callee, Args: args}
}

// ifExpr = "if" expr "then" expr "else" expr ;
// The branches are parsed as full expressions, so a trailing binary
// operator continues the branch rather than the whole conditional.
func (p *Parser) ifExpr(tok token.Token) ast.Node {
	cond := p.expression()
	p.consume(token.THEN)
	then := p.expression()
	p.consume(token.ELSE)
	els := p.expression()

	return &ast.If{Tok: tok, Cond: cond, Then: then, Else: els}
}

// forExpr = "for" IDENT "=" expr "," expr ("," expr)? "in" expr ;
func (p *Parser) forExpr(token.Token) ast.Node {
	name := p.consume(token.IDENT)
	p.consumeOperator("=")
	init := p.expression()
	p.consume(token.COMMA)
	cond := p.expression()
	var step ast.Node
	if p.match(token.COMMA) {
		p.advance()
		step = p.expression()
	}
	p.consume(token.IN)
	body := p.expression()

	return &ast.For{VarName: name, Init: init, Cond: cond, Step: step, Body: body}
}

// varExpr = "var" vardef ("," vardef)* "in" expr ;
// vardef = IDENT ("=" expr)? ;
func (p *Parser) varExpr(tok token.Token) ast.Node {
	var defs []ast.VarDef
	for {
		name := p.consume(token.IDENT)
		var init ast.Node
		if p.matchOperator("=") {
			p.advance()
			init = p.expression()
		}
		defs = append(defs, ast.VarDef{Name: name, Init: init})
		if !p.match(token.COMMA) {
			break
		}
		p.advance()
	}
	p.consume(token.IN)
	body := p.expression()

	return &ast.VarIn{Tok: tok, Defs: defs, Body: body}
}

// synchronize discards input up to and including the next statement
// terminator, unless the failed statement already consumed one.
func (p *Parser) synchronize() {
	if p.prev.Kind == token.SEMICOLON {
		return
	}
	for !p.IsAtEnd() {
		if p.advance().Kind == token.SEMICOLON {
			return
		}
	}
}

func (p *Parser) recover(err error) {
	p.err = errors.Join(p.err, err)
}

func (p *Parser) advance() token.Token {
	p.prev = p.tok
	if p.tok.Kind != token.EOF {
		p.tok = p.lexer.Next()
	}

	return p.prev
}

func (p Parser) IsAtEnd() bool {
	return p.tok.Kind == token.EOF
}

func (p Parser) match(kind token.Kind) bool {
	return p.tok.Kind == kind
}

func (p Parser) matchOperator(lexeme string) bool {
	return p.tok.Kind == token.OPERATOR && p.tok.Lexeme == lexeme
}

func (p *Parser) consume(kind token.Kind) token.Token {
	if p.match(kind) {
		return p.advance()
	}

	p.recover(unexpectedToken(p.tok, kind.String()))

	return p.tok
}

func (p *Parser) consumeOperator(lexeme string) token.Token {
	if p.matchOperator(lexeme) {
		return p.advance()
	}

	p.recover(unexpectedToken(p.tok, "`"+lexeme+"`"))

	return p.tok
}

type UnexpectedTokenError struct {
	Expected []string
}

func (e UnexpectedTokenError) Error() string {
	var msg string
	if len(e.Expected) >= 1 {
		msg = e.Expected[0]
	}

	for _, ex := range e.Expected[1:] {
		msg = msg + ", " + ex
	}

	return "unexpected token: expected " + msg
}

func unexpectedToken(t token.Token, expected ...string) error {
	return utils.PosError{Where: t, Err: UnexpectedTokenError{Expected: expected}}
}
