package deltaerr

import (
	"strings"
	"testing"

	"github.com/anissen/delta/internal/token"
)

func TestErrorIncludesKindAndPosition(t *testing.T) {
	err := NewCompile(token.Position{Line: 3, Column: 5}, "unresolved identifier %q", "foo")
	got := err.Error()
	if !strings.Contains(got, "CompileError") {
		t.Fatalf("expected kind in %q", got)
	}
	if !strings.Contains(got, "line 3, column 5") {
		t.Fatalf("expected position in %q", got)
	}
	if !strings.Contains(got, `unresolved identifier "foo"`) {
		t.Fatalf("expected formatted message in %q", got)
	}
}

func TestWithSourceAppendsCaretUnderColumn(t *testing.T) {
	err := NewParse(token.Position{Line: 1, Column: 3}, "unexpected token").WithSource("1 + + 2")
	got := err.Error()
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (message, source, caret), got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[1], "1 + + 2") {
		t.Fatalf("expected source line, got %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "^") {
		t.Fatalf("expected caret line to end with ^, got %q", lines[2])
	}
}

func TestNewRuntimeHasNoPosition(t *testing.T) {
	err := NewRuntime("division by zero")
	got := err.Error()
	if strings.Contains(got, "line") {
		t.Fatalf("runtime error with zero position should omit position, got %q", got)
	}
	if err.Kind != Runtime {
		t.Fatalf("got kind %s, want %s", err.Kind, Runtime)
	}
}
