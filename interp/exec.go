package interp

import (
	"fmt"

	"github.com/takoeight0821/kaleido/codegen"
)

type VerifyError struct {
	Fn     string
	Block  string
	Reason string
}

func (e VerifyError) Error() string {
	name := e.Fn
	if name == "" {
		name = "<anonymous>"
	}

	return fmt.Sprintf("verify @%s, block %s: %s", name, e.Block, e.Reason)
}

// Finalize checks structural well-formedness and publishes the function
// for later statements. Declared functions are published at Declare time
// already; this is the point where a body becomes trusted.
func (m *Machine) Finalize(fn codegen.Func) error {
	f := fn.(*function)
	owned := make(map[*block]bool, len(f.blocks))
	for _, b := range f.blocks {
		owned[b] = true
	}

	for _, b := range f.blocks {
		if len(b.insts) == 0 {
			return VerifyError{Fn: f.name, Block: b.name, Reason: "empty block"}
		}
		for n, in := range b.insts {
			terminator := in.op == opBr || in.op == opCondBr || in.op == opRet
			if terminator != (n == len(b.insts)-1) {
				return VerifyError{Fn: f.name, Block: b.name, Reason: "misplaced terminator"}
			}
			for _, target := range in.targets {
				if !owned[target] {
					return VerifyError{Fn: f.name, Block: b.name, Reason: "branch to foreign block"}
				}
			}
			if in.op == opPhi {
				if len(in.incomings) == 0 {
					return VerifyError{Fn: f.name, Block: b.name, Reason: "phi without incomings"}
				}
				for _, inc := range in.incomings {
					if !owned[inc.From.(*block)] {
						return VerifyError{Fn: f.name, Block: b.name, Reason: "phi incoming from foreign block"}
					}
				}
			}
		}
	}

	f.finalized = true

	return nil
}

type NoBodyError struct {
	Name string
}

func (e NoBodyError) Error() string {
	return fmt.Sprintf("`%s` is declared but has no body", e.Name)
}

// Run evaluates a finished zero-argument function.
func (m *Machine) Run(fn codegen.Func) (float64, error) {
	return m.exec(fn.(*function), nil)
}

type frame struct {
	args  []float64
	vals  map[*instruction]float64
	slots map[*instruction]float64
}

func (fr *frame) eval(v codegen.Value) float64 {
	switch v := v.(type) {
	case constant:
		return float64(v)
	case paramValue:
		return fr.args[v.index]
	case *instruction:
		return fr.vals[v]
	default:
		panic(fmt.Sprintf("interp: unknown value %v", v))
	}
}

func (m *Machine) exec(f *function, args []float64) (float64, error) {
	if f.native != nil {
		return f.native(m.out, args), nil
	}
	if len(f.blocks) == 0 {
		return 0, NoBodyError{Name: f.name}
	}

	fr := &frame{
		args:  args,
		vals:  make(map[*instruction]float64),
		slots: make(map[*instruction]float64),
	}
	for _, a := range f.allocas {
		fr.slots[a] = 0
	}

	var prev *block
	cur := f.blocks[0]
blocks:
	for {
		for _, in := range cur.insts {
			switch in.op {
			case opLoad:
				fr.vals[in] = fr.slots[in.args[0].(*instruction)]
			case opStore:
				fr.slots[in.args[1].(*instruction)] = fr.eval(in.args[0])
			case opAdd:
				fr.vals[in] = fr.eval(in.args[0]) + fr.eval(in.args[1])
			case opSub:
				fr.vals[in] = fr.eval(in.args[0]) - fr.eval(in.args[1])
			case opMul:
				fr.vals[in] = fr.eval(in.args[0]) * fr.eval(in.args[1])
			case opLT:
				fr.vals[in] = boolToFloat(fr.eval(in.args[0]) < fr.eval(in.args[1]))
			case opNE:
				fr.vals[in] = boolToFloat(fr.eval(in.args[0]) != fr.eval(in.args[1]))
			case opB2F:
				fr.vals[in] = fr.eval(in.args[0])
			case opCall:
				callArgs := make([]float64, len(in.args))
				for n, a := range in.args {
					callArgs[n] = fr.eval(a)
				}
				result, err := m.exec(in.callee, callArgs)
				if err != nil {
					return 0, err
				}
				fr.vals[in] = result
			case opPhi:
				value, err := phiSelect(in, prev)
				if err != nil {
					return 0, err
				}
				fr.vals[in] = fr.eval(value)
			case opBr:
				prev, cur = cur, in.targets[0]

				continue blocks
			case opCondBr:
				target := in.targets[1]
				if fr.eval(in.args[0]) != 0 {
					target = in.targets[0]
				}
				prev, cur = cur, target

				continue blocks
			case opRet:
				return fr.eval(in.args[0]), nil
			case opAlloca:
				// Slots live in f.allocas, never in a block.
				panic("interp: alloca in instruction stream")
			}
		}

		// Finalize rejects blocks without a terminator.
		panic("interp: block fell through")
	}
}

func phiSelect(in *instruction, prev *block) (codegen.Value, error) {
	for _, inc := range in.incomings {
		if inc.From.(*block) == prev {
			return inc.Value, nil
		}
	}

	return nil, fmt.Errorf("interp: phi has no incoming for predecessor")
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
