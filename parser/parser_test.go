package parser_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/takoeight0821/kaleido/lexer"
	"github.com/takoeight0821/kaleido/operator"
	"github.com/takoeight0821/kaleido/parser"
	"github.com/takoeight0821/kaleido/utils"
)

func TestParseFromTestData(t *testing.T) {
	t.Parallel()
	s, err := os.ReadFile("../testdata/testcase.yaml")
	if err != nil {
		panic(err)
	}
	testcases := utils.ReadTestData(s)
	for _, testcase := range testcases {
		expected, ok := testcase.Expected["parser"]
		if !ok {
			t.Errorf("%s has no expected value", testcase.Label)

			continue
		}

		actual, err := parseAll(testcase.Input)
		if err != nil {
			t.Errorf("%s returned error: %v", testcase.Label, err)

			continue
		}
		if diff := cmp.Diff(expected, actual); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", testcase.Label, diff)
		}
	}
}

func parseAll(source string) (string, error) {
	table := operator.NewTable()
	p := parser.New(lexer.New(source, table), table)

	var stmts []string
	for {
		stmt, err := p.ParseStatement()
		if err != nil {
			return "", err
		}
		if stmt == nil {
			return strings.Join(stmts, "\n"), nil
		}
		stmts = append(stmts, stmt.String())
	}
}

// A failed statement is skipped up to its `;`; the next statement still
// parses.
func TestSynchronize(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	p := parser.New(lexer.New("def 1;\n2 + 3;", table), table)

	if _, err := p.ParseStatement(); err == nil {
		t.Error("parsing `def 1;` succeeded, want error")
	}

	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement returned error: %v", err)
	}
	if got := stmt.String(); got != "(def (proto ()) (+ 2 3))" {
		t.Errorf("ParseStatement returned %s", got)
	}
}

// An operator registered by a failing definition stays registered; the
// table never rolls back.
func TestOperatorSurvivesFailedDefinition(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	p := parser.New(lexer.New("def binary> 7 (a b c) a;\n1 > 2;", table), table)

	var opErr parser.OperandCountError
	if _, err := p.ParseStatement(); !errors.As(err, &opErr) {
		t.Fatalf("ParseStatement returned %v, want OperandCountError", err)
	}

	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement returned error: %v", err)
	}
	if got := stmt.String(); got != "(def (proto ()) (> 1 2))" {
		t.Errorf("ParseStatement returned %s", got)
	}
}

// A precedence outside 1..10 is rejected and the operator stays
// unusable in binary position.
func TestInvalidPrecedence(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	p := parser.New(lexer.New("def binary> 11 (a b) a;", table), table)

	var precErr operator.InvalidPrecedenceError
	if _, err := p.ParseStatement(); !errors.As(err, &precErr) {
		t.Fatalf("ParseStatement returned %v, want InvalidPrecedenceError", err)
	}
	if _, ok := table.Classify('>'); ok {
		t.Error("`>` was registered despite the invalid precedence")
	}
}

// An unregistered candidate character cannot be used as a binary
// operator.
func TestUnregisteredOperator(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	p := parser.New(lexer.New("1 > 2;", table), table)

	if _, err := p.ParseStatement(); err == nil {
		t.Error("parsing `1 > 2;` succeeded, want error")
	}
}

func BenchmarkFromTestData(b *testing.B) {
	s, err := os.ReadFile("../testdata/testcase.yaml")
	if err != nil {
		panic(err)
	}
	testcases := utils.ReadTestData(s)

	for _, testcase := range testcases {
		b.Run(testcase.Label, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := parseAll(testcase.Input); err != nil {
					b.Fatalf("parse returned error: %v", err)
				}
			}
		})
	}
}
