// Package driver owns the session state and runs the pipeline one
// statement at a time: lex, parse, lower, finalize, and for a bare
// expression, evaluate. A failed statement is reported and the session
// moves on to the next one.
package driver

import (
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/takoeight0821/kaleido/ast"
	"github.com/takoeight0821/kaleido/codegen"
	"github.com/takoeight0821/kaleido/lexer"
	"github.com/takoeight0821/kaleido/operator"
	"github.com/takoeight0821/kaleido/parser"
)

type ResultKind int

const (
	// Defined is a named function definition.
	Defined ResultKind = iota
	// Declared is an extern declaration.
	Declared
	// Evaluated is a bare expression that was run immediately.
	Evaluated
)

type Result struct {
	Kind  ResultKind
	Name  string
	Value float64
}

func (r Result) String() string {
	switch r.Kind {
	case Defined:
		return "defined " + r.Name
	case Declared:
		return "declared " + r.Name
	case Evaluated:
		return strconv.FormatFloat(r.Value, 'g', -1, 64)
	default:
		return ""
	}
}

// Session holds the state that survives across statements: the operator
// table, the backend, and the compiler with its symbol table.
type Session struct {
	operators *operator.Table
	backend   codegen.Backend
	compiler  *codegen.Compiler
}

func NewSession(backend codegen.Backend) *Session {
	return &Session{
		operators: operator.NewTable(),
		backend:   backend,
		compiler:  codegen.NewCompiler(backend),
	}
}

// RunSource processes every statement of source in order. Errors are
// collected per statement and joined; statements after a failed one are
// still processed, and state registered before a failure (notably a
// user operator from a failed definition) stays registered.
func (s *Session) RunSource(source string) ([]Result, error) {
	p := parser.New(lexer.New(source, s.operators), s.operators)

	var results []Result
	var errs error
	for {
		stmt, err := p.ParseStatement()
		if err != nil {
			errs = errors.Join(errs, err)

			continue
		}
		if stmt == nil {
			return results, errs
		}

		result, err := s.lower(stmt)
		if err != nil {
			errs = errors.Join(errs, err)

			continue
		}
		results = append(results, result)
	}
}

func (s *Session) lower(stmt ast.Node) (Result, error) {
	switch n := stmt.(type) {
	case *ast.Prototype:
		fn, err := s.compiler.Prototype(n)
		if err != nil {
			return Result{}, err
		}

		return Result{Kind: Declared, Name: fn.Name()}, nil
	case *ast.Function:
		fn, err := s.compiler.Function(n)
		if err != nil {
			return Result{}, err
		}
		if n.Anonymous() {
			value, err := s.backend.Run(fn)
			if err != nil {
				return Result{}, err
			}

			return Result{Kind: Evaluated, Value: value}, nil
		}

		return Result{Kind: Defined, Name: fn.Name()}, nil
	default:
		log.Panicf("driver: unexpected statement %v", stmt)

		return Result{}, nil
	}
}

// WriteModule writes the session's finalized functions as the persisted
// artifact.
func (s *Session) WriteModule(w io.Writer) error {
	return s.backend.WriteModule(w)
}
