// Package interp is an in-process backend: it builds a small SSA-style
// IR through the codegen capability surface, verifies it, and evaluates
// finished functions directly. It plays the role a JIT plays for the
// real toolchain, which keeps the whole pipeline runnable in tests.
package interp

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/takoeight0821/kaleido/codegen"
)

type Machine struct {
	funcs map[string]*function
	order []string
	out   io.Writer

	cur    *function
	insert *block
}

func New() *Machine {
	return &Machine{funcs: make(map[string]*function), out: os.Stdout}
}

// SetOutput redirects the output of the native extern functions.
func (m *Machine) SetOutput(w io.Writer) {
	m.out = w
}

type function struct {
	name    string
	params  []string
	allocas []*instruction
	blocks  []*block
	native  func(io.Writer, []float64) float64

	nextID    int
	numBlocks int
	finalized bool
}

func (f *function) Name() string { return f.name }

func (f *function) Arity() int { return len(f.params) }

func (f *function) HasBody() bool { return len(f.blocks) > 0 || f.native != nil }

var _ codegen.Func = &function{}

type block struct {
	name  string
	insts []*instruction
}

func (b *block) Name() string { return b.name }

var _ codegen.Block = &block{}

type opcode int

const (
	opLoad opcode = iota
	opStore
	opAdd
	opSub
	opMul
	opLT
	opNE
	opB2F
	opCall
	opPhi
	opBr
	opCondBr
	opRet
	opAlloca
)

type instruction struct {
	id        int
	op        opcode
	name      string // slot name, for allocas
	args      []codegen.Value
	callee    *function
	incomings []codegen.Incoming
	targets   []*block
}

func (i *instruction) String() string {
	return "%" + strconv.Itoa(i.id)
}

var _ codegen.Value = &instruction{}

type constant float64

func (c constant) String() string {
	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

type paramValue struct {
	index int
	name  string
}

func (p paramValue) String() string {
	return "%" + p.name
}

// Native extern functions available to `extern` declarations.
var natives = map[string]func(io.Writer, []float64) float64{
	// putchard prints the character given by its argument's code point.
	"putchard": func(w io.Writer, args []float64) float64 {
		fmt.Fprintf(w, "%c", rune(args[0]))

		return 0
	},
	// printd prints its argument followed by a newline.
	"printd": func(w io.Writer, args []float64) float64 {
		fmt.Fprintf(w, "%g\n", args[0])

		return 0
	},
}

type DeclareConflictError struct {
	Name string
	Want int
	Got  int
}

func (e DeclareConflictError) Error() string {
	return fmt.Sprintf("`%s` is already declared with %d parameters, not %d", e.Name, e.Want, e.Got)
}

func (m *Machine) Declare(name string, params []string) (codegen.Func, error) {
	if name == "" {
		// Anonymous functions are never registered.
		return &function{name: "", params: params}, nil
	}

	if f, ok := m.funcs[name]; ok {
		if len(f.params) != len(params) {
			return nil, DeclareConflictError{Name: name, Want: len(f.params), Got: len(params)}
		}

		return f, nil
	}

	f := &function{name: name, params: params}
	if native, ok := natives[name]; ok && len(params) == 1 {
		f.native = native
	}
	m.funcs[name] = f
	m.order = append(m.order, name)

	return f, nil
}

func (m *Machine) Lookup(name string) (codegen.Func, bool) {
	f, ok := m.funcs[name]

	return f, ok
}

func (m *Machine) StartBody(fn codegen.Func) codegen.Block {
	f := fn.(*function)
	entry := &block{name: "entry"}
	f.blocks = []*block{entry}
	f.numBlocks = 1
	m.cur = f
	m.insert = entry

	return entry
}

func (m *Machine) NewBlock(name string) codegen.Block {
	b := &block{name: fmt.Sprintf("%s%d", name, m.cur.numBlocks)}
	m.cur.numBlocks++
	m.cur.blocks = append(m.cur.blocks, b)

	return b
}

func (m *Machine) SetInsertBlock(b codegen.Block) {
	m.insert = b.(*block)
}

func (m *Machine) InsertBlock() codegen.Block {
	return m.insert
}

func (m *Machine) emit(in *instruction) *instruction {
	in.id = m.cur.nextID
	m.cur.nextID++
	m.insert.insts = append(m.insert.insts, in)

	return in
}

func (m *Machine) ConstFloat(v float64) codegen.Value {
	return constant(v)
}

// Alloca reserves a slot for the whole function regardless of where the
// insertion point is, so a slot created in a loop body is still one cell.
func (m *Machine) Alloca(name string) codegen.Value {
	in := &instruction{id: m.cur.nextID, op: opAlloca, name: name}
	m.cur.nextID++
	m.cur.allocas = append(m.cur.allocas, in)

	return in
}

func (m *Machine) Load(slot codegen.Value, name string) codegen.Value {
	return m.emit(&instruction{op: opLoad, name: name, args: []codegen.Value{slot}})
}

func (m *Machine) Store(value, slot codegen.Value) {
	m.emit(&instruction{op: opStore, args: []codegen.Value{value, slot}})
}

func (m *Machine) Param(i int) codegen.Value {
	return paramValue{index: i, name: m.cur.params[i]}
}

func (m *Machine) Add(l, r codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opAdd, args: []codegen.Value{l, r}})
}

func (m *Machine) Sub(l, r codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opSub, args: []codegen.Value{l, r}})
}

func (m *Machine) Mul(l, r codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opMul, args: []codegen.Value{l, r}})
}

func (m *Machine) CmpLT(l, r codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opLT, args: []codegen.Value{l, r}})
}

func (m *Machine) CmpNE(l, r codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opNE, args: []codegen.Value{l, r}})
}

func (m *Machine) BoolToFloat(v codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opB2F, args: []codegen.Value{v}})
}

func (m *Machine) Call(fn codegen.Func, args []codegen.Value) codegen.Value {
	return m.emit(&instruction{op: opCall, callee: fn.(*function), args: args})
}

func (m *Machine) Phi(incomings ...codegen.Incoming) codegen.Value {
	return m.emit(&instruction{op: opPhi, incomings: incomings})
}

func (m *Machine) Br(target codegen.Block) {
	m.emit(&instruction{op: opBr, targets: []*block{target.(*block)}})
}

func (m *Machine) CondBr(cond codegen.Value, then, els codegen.Block) {
	m.emit(&instruction{op: opCondBr, args: []codegen.Value{cond}, targets: []*block{then.(*block), els.(*block)}})
}

func (m *Machine) Ret(v codegen.Value) {
	m.emit(&instruction{op: opRet, args: []codegen.Value{v}})
}

// AbandonBody rolls a function back to a bare declaration, so a later
// definition of the same name can try again.
func (m *Machine) AbandonBody(fn codegen.Func) {
	f := fn.(*function)
	f.blocks = nil
	f.allocas = nil
	f.nextID = 0
	f.numBlocks = 0
	f.finalized = false
}

var _ codegen.Backend = &Machine{}

// WriteModule renders every declared function: externs as declarations,
// finalized functions with their blocks.
func (m *Machine) WriteModule(w io.Writer) error {
	for i, name := range m.order {
		f := m.funcs[name]
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := f.dump(w); err != nil {
			return err
		}
	}

	return nil
}

func (f *function) dump(w io.Writer) error {
	params := strings.Join(f.params, ", ")
	if len(f.blocks) == 0 {
		_, err := fmt.Fprintf(w, "declare @%s(%s)\n", f.name, params)

		return err
	}

	if _, err := fmt.Fprintf(w, "define @%s(%s) {\n", f.name, params); err != nil {
		return err
	}
	for i, b := range f.blocks {
		if _, err := fmt.Fprintf(w, "%s:\n", b.name); err != nil {
			return err
		}
		if i == 0 {
			for _, a := range f.allocas {
				if _, err := fmt.Fprintf(w, "  %s = alloca %s\n", a, a.name); err != nil {
					return err
				}
			}
		}
		for _, in := range b.insts {
			if _, err := fmt.Fprintf(w, "  %s\n", in.render()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")

	return err
}

func (i *instruction) render() string {
	switch i.op {
	case opAlloca:
		return fmt.Sprintf("%s = alloca %s", i, i.name)
	case opLoad:
		return fmt.Sprintf("%s = load %s", i, i.args[0])
	case opStore:
		return fmt.Sprintf("store %s, %s", i.args[0], i.args[1])
	case opAdd:
		return fmt.Sprintf("%s = fadd %s, %s", i, i.args[0], i.args[1])
	case opSub:
		return fmt.Sprintf("%s = fsub %s, %s", i, i.args[0], i.args[1])
	case opMul:
		return fmt.Sprintf("%s = fmul %s, %s", i, i.args[0], i.args[1])
	case opLT:
		return fmt.Sprintf("%s = fcmp ult %s, %s", i, i.args[0], i.args[1])
	case opNE:
		return fmt.Sprintf("%s = fcmp one %s, %s", i, i.args[0], i.args[1])
	case opB2F:
		return fmt.Sprintf("%s = uitofp %s", i, i.args[0])
	case opCall:
		args := make([]string, len(i.args))
		for n, a := range i.args {
			args[n] = a.String()
		}

		return fmt.Sprintf("%s = call @%s(%s)", i, i.callee.name, strings.Join(args, ", "))
	case opPhi:
		pairs := make([]string, len(i.incomings))
		for n, inc := range i.incomings {
			pairs[n] = fmt.Sprintf("[%s, %s]", inc.Value, inc.From.Name())
		}

		return fmt.Sprintf("%s = phi %s", i, strings.Join(pairs, ", "))
	case opBr:
		return fmt.Sprintf("br %s", i.targets[0].name)
	case opCondBr:
		return fmt.Sprintf("br %s, %s, %s", i.args[0], i.targets[0].name, i.targets[1].name)
	case opRet:
		return fmt.Sprintf("ret %s", i.args[0])
	default:
		panic(fmt.Sprintf("interp: unknown opcode %d", i.op))
	}
}
