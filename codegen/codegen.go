// Package codegen lowers one statement's AST into backend instructions.
// Lowering is depth-first and left-to-right; every expression node yields
// exactly one backend value. Variables live in stack slots held by the
// symbol table, so assignment is a store and a reference is a load.
package codegen

import (
	"fmt"
	"log"

	"github.com/takoeight0821/kaleido/ast"
	"github.com/takoeight0821/kaleido/scope"
	"github.com/takoeight0821/kaleido/utils"
)

// Compiler threads one backend and one symbol table through the session.
// The table's contents are scoped per construct, but the table itself
// survives across statements.
type Compiler struct {
	backend Backend
	symtab  *scope.Table[Value]
}

func NewCompiler(backend Backend) *Compiler {
	return &Compiler{backend: backend, symtab: scope.NewTable[Value]()}
}

type UnknownVariableError struct {
	Name string
}

func (e UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable `%s`", e.Name)
}

type UnknownFunctionError struct {
	Name string
}

func (e UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function `%s`", e.Name)
}

type UnknownOperatorError struct {
	Name string
}

func (e UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator `%s`", e.Name)
}

type ArityMismatchError struct {
	Name string
	Want int
	Got  int
}

func (e ArityMismatchError) Error() string {
	return fmt.Sprintf("`%s` takes %d arguments, got %d", e.Name, e.Want, e.Got)
}

type AssignTargetError struct{}

func (e AssignTargetError) Error() string {
	return "destination of `=` must be a variable"
}

type RedefinitionError struct {
	Name string
}

func (e RedefinitionError) Error() string {
	return fmt.Sprintf("function `%s` already has a body", e.Name)
}

// Prototype declares a function with one double parameter per name.
func (c *Compiler) Prototype(proto *ast.Prototype) (Func, error) {
	params := make([]string, len(proto.Params))
	for i, param := range proto.Params {
		params[i] = param.Lexeme
	}

	fn, err := c.backend.Declare(proto.Name, params)
	if err != nil {
		return nil, utils.PosError{Where: proto.Tok, Err: err}
	}

	return fn, nil
}

// Function lowers a definition: declare, bind parameters to fresh slots
// in a new scope, lower the body, return its value, then verify and
// publish. A name that already has a body fails without emitting one.
func (c *Compiler) Function(fun *ast.Function) (Func, error) {
	c.symtab.Enter()
	defer c.symtab.Leave()

	fn, err := c.Prototype(fun.Proto)
	if err != nil {
		return nil, err
	}
	if fn.HasBody() {
		return nil, utils.PosError{Where: fun.Proto.Tok, Err: RedefinitionError{Name: fun.Proto.Name}}
	}

	c.backend.StartBody(fn)
	for i, param := range fun.Proto.Params {
		slot := c.backend.Alloca(param.Lexeme)
		c.backend.Store(c.backend.Param(i), slot)
		c.symtab.Define(param.Lexeme, slot)
	}

	ret, err := c.Expr(fun.Body)
	if err != nil {
		c.backend.AbandonBody(fn)

		return nil, err
	}
	c.backend.Ret(ret)

	if err := c.backend.Finalize(fn); err != nil {
		c.backend.AbandonBody(fn)

		return nil, err
	}

	return fn, nil
}

// Expr lowers one expression node and returns its value.
func (c *Compiler) Expr(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Number:
		return c.backend.ConstFloat(n.Value), nil
	case *ast.Variable:
		slot, ok := c.symtab.Lookup(n.Name.Lexeme)
		if !ok {
			return nil, utils.PosError{Where: n.Name, Err: UnknownVariableError{Name: n.Name.Lexeme}}
		}

		return c.backend.Load(slot, n.Name.Lexeme), nil
	case *ast.Unary:
		return c.unary(n)
	case *ast.Binary:
		return c.binary(n)
	case *ast.Call:
		return c.call(n)
	case *ast.If:
		return c.ifExpr(n)
	case *ast.For:
		return c.forExpr(n)
	case *ast.VarIn:
		return c.varIn(n)
	default:
		log.Panicf("codegen: unexpected node %v", n)

		return nil, nil
	}
}

// unary resolves the function `unary<op>` and calls it with one operand.
func (c *Compiler) unary(n *ast.Unary) (Value, error) {
	operand, err := c.Expr(n.Operand)
	if err != nil {
		return nil, err
	}

	fn, ok := c.backend.Lookup("unary" + n.Op.Lexeme)
	if !ok {
		return nil, utils.PosError{Where: n.Op, Err: UnknownOperatorError{Name: "unary" + n.Op.Lexeme}}
	}

	return c.backend.Call(fn, []Value{operand}), nil
}

func (c *Compiler) binary(n *ast.Binary) (Value, error) {
	// `=` lowers only its right side; the left names a slot to store to
	// and is never evaluated.
	if n.Op.Lexeme == "=" {
		return c.assign(n)
	}

	left, err := c.Expr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.Expr(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op.Lexeme {
	case "+":
		return c.backend.Add(left, right), nil
	case "-":
		return c.backend.Sub(left, right), nil
	case "*":
		return c.backend.Mul(left, right), nil
	case "<":
		return c.backend.BoolToFloat(c.backend.CmpLT(left, right)), nil
	}

	// Not a built-in, so it must be a user-defined binary operator.
	fn, ok := c.backend.Lookup("binary" + n.Op.Lexeme)
	if !ok {
		return nil, utils.PosError{Where: n.Op, Err: UnknownOperatorError{Name: "binary" + n.Op.Lexeme}}
	}

	return c.backend.Call(fn, []Value{left, right}), nil
}

func (c *Compiler) assign(n *ast.Binary) (Value, error) {
	target, ok := n.Left.(*ast.Variable)
	if !ok {
		return nil, utils.PosError{Where: n.Op, Err: AssignTargetError{}}
	}

	value, err := c.Expr(n.Right)
	if err != nil {
		return nil, err
	}

	slot, ok := c.symtab.Lookup(target.Name.Lexeme)
	if !ok {
		return nil, utils.PosError{Where: target.Name, Err: UnknownVariableError{Name: target.Name.Lexeme}}
	}
	c.backend.Store(value, slot)

	// The assignment's value is the stored value.
	return value, nil
}

func (c *Compiler) call(n *ast.Call) (Value, error) {
	fn, ok := c.backend.Lookup(n.Callee.Lexeme)
	if !ok {
		return nil, utils.PosError{Where: n.Callee, Err: UnknownFunctionError{Name: n.Callee.Lexeme}}
	}
	if fn.Arity() != len(n.Args) {
		return nil, utils.PosError{Where: n.Callee, Err: ArityMismatchError{Name: n.Callee.Lexeme, Want: fn.Arity(), Got: len(n.Args)}}
	}

	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		var err error
		args[i], err = c.Expr(arg)
		if err != nil {
			return nil, err
		}
	}

	return c.backend.Call(fn, args), nil
}

// ifExpr lowers both branches exactly once and joins their values with a
// merge node keyed by the executed predecessor.
func (c *Compiler) ifExpr(n *ast.If) (Value, error) {
	cond, err := c.Expr(n.Cond)
	if err != nil {
		return nil, err
	}
	cond = c.backend.CmpNE(cond, c.backend.ConstFloat(0))

	thenBlock := c.backend.NewBlock("then")
	elseBlock := c.backend.NewBlock("else")
	mergeBlock := c.backend.NewBlock("merge")
	c.backend.CondBr(cond, thenBlock, elseBlock)

	c.backend.SetInsertBlock(thenBlock)
	thenValue, err := c.Expr(n.Then)
	if err != nil {
		return nil, err
	}
	c.backend.Br(mergeBlock)
	// Lowering the branch may have moved the insertion block.
	thenExit := c.backend.InsertBlock()

	c.backend.SetInsertBlock(elseBlock)
	elseValue, err := c.Expr(n.Else)
	if err != nil {
		return nil, err
	}
	c.backend.Br(mergeBlock)
	elseExit := c.backend.InsertBlock()

	c.backend.SetInsertBlock(mergeBlock)

	return c.backend.Phi(
		Incoming{Value: thenValue, From: thenExit},
		Incoming{Value: elseValue, From: elseExit},
	), nil
}

// forExpr lowers a bottom-tested loop: the body and step run before the
// condition is first evaluated, so the body executes at least once. The
// loop variable lives in a slot scoped to the loop. The expression's
// value is always 0.
func (c *Compiler) forExpr(n *ast.For) (Value, error) {
	c.symtab.Enter()
	defer c.symtab.Leave()

	init, err := c.Expr(n.Init)
	if err != nil {
		return nil, err
	}
	slot := c.backend.Alloca(n.VarName.Lexeme)
	c.backend.Store(init, slot)
	c.symtab.Define(n.VarName.Lexeme, slot)

	loopBlock := c.backend.NewBlock("loop")
	c.backend.Br(loopBlock)
	c.backend.SetInsertBlock(loopBlock)

	if _, err := c.Expr(n.Body); err != nil {
		return nil, err
	}

	step := c.backend.ConstFloat(1)
	if n.Step != nil {
		step, err = c.Expr(n.Step)
		if err != nil {
			return nil, err
		}
	}
	current := c.backend.Load(slot, n.VarName.Lexeme)
	c.backend.Store(c.backend.Add(current, step), slot)

	cond, err := c.Expr(n.Cond)
	if err != nil {
		return nil, err
	}
	cond = c.backend.CmpNE(cond, c.backend.ConstFloat(0))

	exitBlock := c.backend.NewBlock("exit")
	c.backend.CondBr(cond, loopBlock, exitBlock)
	c.backend.SetInsertBlock(exitBlock)

	return c.backend.ConstFloat(0), nil
}

// varIn lowers each initializer before binding its name, so an
// initializer sees earlier names of the same block and outer scopes but
// never its own or later ones.
func (c *Compiler) varIn(n *ast.VarIn) (Value, error) {
	c.symtab.Enter()
	defer c.symtab.Leave()

	for _, def := range n.Defs {
		init := c.backend.ConstFloat(0)
		if def.Init != nil {
			var err error
			init, err = c.Expr(def.Init)
			if err != nil {
				return nil, err
			}
		}
		slot := c.backend.Alloca(def.Name.Lexeme)
		c.backend.Store(init, slot)
		c.symtab.Define(def.Name.Lexeme, slot)
	}

	return c.Expr(n.Body)
}
