package interp_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/takoeight0821/kaleido/codegen"
	"github.com/takoeight0821/kaleido/interp"
)

// buildDouble emits `double(x) = x + x` through the backend surface.
func buildDouble(t *testing.T, m *interp.Machine) codegen.Func {
	t.Helper()

	double, err := m.Declare("double", []string{"x"})
	if err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}
	m.StartBody(double)
	slot := m.Alloca("x")
	m.Store(m.Param(0), slot)
	x := m.Load(slot, "x")
	m.Ret(m.Add(x, x))
	if err := m.Finalize(double); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	return double
}

func TestRun(t *testing.T) {
	t.Parallel()

	m := interp.New()
	double := buildDouble(t, m)

	anon, err := m.Declare("", nil)
	if err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}
	m.StartBody(anon)
	m.Ret(m.Call(double, []codegen.Value{m.ConstFloat(21)}))
	if err := m.Finalize(anon); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	got, err := m.Run(anon)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != 42 {
		t.Errorf("Run returned %v, want 42", got)
	}
}

// The merge node picks its value by the block that branched here.
func TestPhiSelectsByPredecessor(t *testing.T) {
	t.Parallel()

	m := interp.New()
	anon, err := m.Declare("", nil)
	if err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}
	m.StartBody(anon)
	cond := m.CmpNE(m.ConstFloat(3), m.ConstFloat(0))
	thenBlock := m.NewBlock("then")
	elseBlock := m.NewBlock("else")
	mergeBlock := m.NewBlock("merge")
	m.CondBr(cond, thenBlock, elseBlock)

	m.SetInsertBlock(thenBlock)
	m.Br(mergeBlock)
	m.SetInsertBlock(elseBlock)
	m.Br(mergeBlock)

	m.SetInsertBlock(mergeBlock)
	m.Ret(m.Phi(
		codegen.Incoming{Value: m.ConstFloat(10), From: thenBlock},
		codegen.Incoming{Value: m.ConstFloat(20), From: elseBlock},
	))
	if err := m.Finalize(anon); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	got, err := m.Run(anon)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != 10 {
		t.Errorf("Run returned %v, want 10", got)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("empty block", func(t *testing.T) {
		t.Parallel()
		m := interp.New()
		fn, _ := m.Declare("broken", nil)
		m.StartBody(fn)

		var verifyErr interp.VerifyError
		if err := m.Finalize(fn); !errors.As(err, &verifyErr) {
			t.Fatalf("Finalize returned %v, want VerifyError", err)
		}
	})

	t.Run("instruction after terminator", func(t *testing.T) {
		t.Parallel()
		m := interp.New()
		fn, _ := m.Declare("broken", nil)
		m.StartBody(fn)
		m.Ret(m.ConstFloat(1))
		m.Add(m.ConstFloat(1), m.ConstFloat(2))

		var verifyErr interp.VerifyError
		if err := m.Finalize(fn); !errors.As(err, &verifyErr) {
			t.Fatalf("Finalize returned %v, want VerifyError", err)
		}
	})
}

func TestDeclareConflict(t *testing.T) {
	t.Parallel()

	m := interp.New()
	if _, err := m.Declare("f", []string{"x"}); err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}

	var conflict interp.DeclareConflictError
	if _, err := m.Declare("f", []string{"x", "y"}); !errors.As(err, &conflict) {
		t.Fatalf("Declare returned %v, want DeclareConflictError", err)
	}
}

func TestNativeOutput(t *testing.T) {
	t.Parallel()

	m := interp.New()
	var out bytes.Buffer
	m.SetOutput(&out)

	putchard, err := m.Declare("putchard", []string{"char"})
	if err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}
	if !putchard.HasBody() {
		t.Fatal("putchard has no native body")
	}

	anon, _ := m.Declare("", nil)
	m.StartBody(anon)
	m.Ret(m.Call(putchard, []codegen.Value{m.ConstFloat(42)}))
	if err := m.Finalize(anon); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if _, err := m.Run(anon); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.String() != "*" {
		t.Errorf("output = %q, want %q", out.String(), "*")
	}
}

func TestWriteModule(t *testing.T) {
	t.Parallel()

	m := interp.New()
	if _, err := m.Declare("printd", []string{"x"}); err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}
	buildDouble(t, m)

	var buf bytes.Buffer
	if err := m.WriteModule(&buf); err != nil {
		t.Fatalf("WriteModule returned error: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "module", buf.Bytes())
}
