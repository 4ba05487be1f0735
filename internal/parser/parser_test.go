package parser

import (
	"testing"

	"github.com/anissen/delta/internal/ast"
	"github.com/anissen/delta/internal/lexer"
)

func parseSource(t *testing.T, source string) *ast.Block {
	t.Helper()
	toks, lerr := lexer.New(source, "test").Scan()
	if lerr != nil {
		t.Fatalf("lex error: %v", lerr)
	}
	block, perr := New(toks, source, "test").Parse()
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	return block
}

func TestParseArithmeticPrecedence(t *testing.T) {
	block := parseSource(t, "1 + 2 * 3\n")
	bin, ok := block.Final.(*ast.Binary)
	if !ok {
		t.Fatalf("expected top-level Binary, got %T", block.Final)
	}
	if _, ok := bin.Right.(*ast.Binary); !ok {
		t.Fatalf("expected * to bind tighter than +, right side was %T", bin.Right)
	}
	if _, ok := bin.Left.(*ast.Integer); !ok {
		t.Fatalf("expected left side to be the literal 1, got %T", bin.Left)
	}
}

func TestParsePipelineToCall(t *testing.T) {
	block := parseSource(t, "3 | add 1\n")
	pipe, ok := block.Final.(*ast.Pipeline)
	if !ok {
		t.Fatalf("expected Pipeline, got %T", block.Final)
	}
	if pipe.Call.Callee != "add" {
		t.Fatalf("expected call to add, got %s", pipe.Call.Callee)
	}
	if len(pipe.Call.Args) != 1 {
		t.Fatalf("expected 1 explicit arg, got %d", len(pipe.Call.Args))
	}
}

func TestParseLetSequenceThenFinal(t *testing.T) {
	block := parseSource(t, "x = 1\ny = 2\nx + y\n")
	if len(block.Lets) != 2 {
		t.Fatalf("expected 2 let bindings, got %d", len(block.Lets))
	}
	if block.Lets[0].Name != "x" || block.Lets[1].Name != "y" {
		t.Fatalf("unexpected let names: %s, %s", block.Lets[0].Name, block.Lets[1].Name)
	}
	if _, ok := block.Final.(*ast.Binary); !ok {
		t.Fatalf("expected final expr to be Binary, got %T", block.Final)
	}
}

func TestParseTagApplication(t *testing.T) {
	block := parseSource(t, "(:container 4)\n")
	tag, ok := block.Final.(*ast.TagExpr)
	if !ok {
		t.Fatalf("expected TagExpr, got %T", block.Final)
	}
	if tag.Name != "container" {
		t.Fatalf("expected tag name container, got %s", tag.Name)
	}
	if _, ok := tag.Payload.(*ast.Integer); !ok {
		t.Fatalf("expected integer payload, got %T", tag.Payload)
	}
}

func TestParseIsExpressionArms(t *testing.T) {
	source := "number is\n    1\n        \"one\"\n    other if other >= 2\n        \"big\"\n    _\n        \"other\"\n"
	block := parseSource(t, source)
	is, ok := block.Final.(*ast.Is)
	if !ok {
		t.Fatalf("expected Is, got %T", block.Final)
	}
	if len(is.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(is.Arms))
	}
	if _, ok := is.Arms[0].Pattern.(ast.LiteralPattern); !ok {
		t.Fatalf("expected arm 0 to be a literal pattern, got %T", is.Arms[0].Pattern)
	}
	if is.Arms[1].Guard == nil {
		t.Fatalf("expected arm 1 to carry a guard")
	}
	if _, ok := is.Arms[2].Pattern.(ast.WildcardPattern); !ok {
		t.Fatalf("expected arm 2 to be wildcard, got %T", is.Arms[2].Pattern)
	}
}

func TestParseInterpolation(t *testing.T) {
	block := parseSource(t, `"Result: {40 + 2}"` + "\n")
	interp, ok := block.Final.(*ast.Interpolation)
	if !ok {
		t.Fatalf("expected Interpolation, got %T", block.Final)
	}
	if len(interp.Parts) != 2 || len(interp.Exprs) != 1 {
		t.Fatalf("expected 2 literal parts and 1 expr, got %d parts %d exprs", len(interp.Parts), len(interp.Exprs))
	}
	if interp.Parts[0] != "Result: " {
		t.Fatalf("unexpected leading literal %q", interp.Parts[0])
	}
}

func TestParseListLiteral(t *testing.T) {
	block := parseSource(t, "[1, 2, 3]\n")
	list, ok := block.Final.(*ast.ListExpr)
	if !ok {
		t.Fatalf("expected ListExpr, got %T", block.Final)
	}
	if len(list.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(list.Elements))
	}
}

func TestParseUnexpectedTokenFails(t *testing.T) {
	toks, lerr := lexer.New("1 +\n", "test").Scan()
	if lerr != nil {
		t.Fatalf("lex error: %v", lerr)
	}
	if _, perr := New(toks, "1 +\n", "test").Parse(); perr == nil {
		t.Fatal("expected a parse error for a dangling operator")
	}
}
