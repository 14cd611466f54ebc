package codegen

import (
	"fmt"
	"io"
)

// Value is an opaque handle for one emitted instruction result, constant,
// parameter, or stack slot.
type Value interface {
	fmt.Stringer
}

// Block is a basic block inside the function under construction.
type Block interface {
	Name() string
}

// Func is a declared function, with or without a body.
type Func interface {
	Name() string
	Arity() int
	HasBody() bool
}

// Incoming is one (value, predecessor) pair of a merge node.
type Incoming struct {
	Value Value
	From  Block
}

// Backend is the code-generation collaborator the lowering drives. The
// frontend never depends on what a backend ultimately produces; it only
// needs this capability surface. Instructions are emitted into the
// current insertion block of the function opened by StartBody.
type Backend interface {
	// Declare registers a function with one double parameter per name,
	// or returns the existing declaration. An empty name declares an
	// anonymous function that is never registered. Declaring an
	// existing name with a different parameter count is an error.
	Declare(name string, params []string) (Func, error)
	Lookup(name string) (Func, bool)

	// StartBody opens the entry block of fn and makes it the insertion
	// block.
	StartBody(fn Func) Block
	NewBlock(name string) Block
	SetInsertBlock(b Block)
	InsertBlock() Block

	ConstFloat(v float64) Value
	// Alloca creates a stack slot in the entry block of the current
	// function. Load and Store move values in and out of slots.
	Alloca(name string) Value
	Load(slot Value, name string) Value
	Store(value, slot Value)
	Param(i int) Value

	Add(l, r Value) Value
	Sub(l, r Value) Value
	Mul(l, r Value) Value
	// CmpLT and CmpNE produce booleans; BoolToFloat widens a boolean
	// back to the numeric type.
	CmpLT(l, r Value) Value
	CmpNE(l, r Value) Value
	BoolToFloat(v Value) Value

	Call(fn Func, args []Value) Value
	Phi(incomings ...Incoming) Value
	Br(target Block)
	CondBr(cond Value, then, els Block)
	Ret(v Value)

	// AbandonBody discards a partially built body after a lowering
	// error, leaving the declaration in place.
	AbandonBody(fn Func)
	// Finalize verifies fn and makes it available to later statements.
	Finalize(fn Func) error
	// Run evaluates a finished zero-argument function immediately.
	Run(fn Func) (float64, error)
	// WriteModule renders every finalized function, for the session's
	// persisted artifact.
	WriteModule(w io.Writer) error
}
