package program

import (
	"bytes"
	"strings"
	"testing"

	"github.com/anissen/delta/internal/value"
)

func run(t *testing.T, source string) (value.Value, string) {
	t.Helper()
	var stdout bytes.Buffer
	_, meta, err := CompileAndRun(source, "test", &stdout)
	if err != nil {
		t.Fatalf("unexpected error for %q: %v", source, err)
	}
	return meta.Result, stdout.String()
}

func TestStoplightColorInterpolation(t *testing.T) {
	source := `color = :red
"The light is {color}"` + "\n"
	result, _ := run(t, source)
	if result != "The light is :red" {
		t.Fatalf("got %v, want %q", result, "The light is :red")
	}
}

func TestNestedTagMatching(t *testing.T) {
	source := `shape = (:circle (:point 3))
shape is
    :circle p
        p is
            :point n
                n
            _
                0
    _
        -1
`
	result, _ := run(t, source)
	if result != int64(3) {
		t.Fatalf("got %v, want 3", result)
	}
}

func TestPipelineChaining(t *testing.T) {
	source := `add = \a b
    a + b
is_even = \n
    n % 2 == 0
3 | add 1 | is_even
`
	result, _ := run(t, source)
	if result != true {
		t.Fatalf("got %v, want true", result)
	}
}

func TestStringInterpolationOfArithmetic(t *testing.T) {
	source := `"Result: {40 + 2}"` + "\n"
	result, _ := run(t, source)
	if result != "Result: 42" {
		t.Fatalf("got %v, want %q", result, "Result: 42")
	}
}

func TestTagPatternMatching(t *testing.T) {
	source := `describe = \container
    container is
        :container n
            "container with value {n}"
        _
            "unknown"
describe (:container 4)
`
	result, _ := run(t, source)
	if result != "container with value 4" {
		t.Fatalf("got %v, want %q", result, "container with value 4")
	}
}

func TestGuardedIsExpression(t *testing.T) {
	source := `classify = \n
    n is
        small if n < 10
            "small"
        big if n < 100
            "medium"
        _
            "large"
classify 5
`
	result, _ := run(t, source)
	if result != "small" {
		t.Fatalf("got %v, want small", result)
	}
}

func TestLogBuiltinPassesValueThroughAndPrints(t *testing.T) {
	result, out := run(t, "log (1 + 1)\n")
	if result != int64(2) {
		t.Fatalf("got %v, want 2", result)
	}
	if !strings.Contains(out, "2") {
		t.Fatalf("expected log output to contain 2, got %q", out)
	}
}

func TestListAppendIsImmutable(t *testing.T) {
	source := `xs = [1, 2]
ys = xs | list_append 3
xs | get_list_length
`
	result, _ := run(t, source)
	if result != int64(2) {
		t.Fatalf("got %v, want 2: appending must not mutate the original list", result)
	}
}

func TestNonExhaustiveIsMatchesAMiddleArm(t *testing.T) {
	source := `x = 5
x is
    1
        "one"
    5
        "five"
`
	result, _ := run(t, source)
	if result != "five" {
		t.Fatalf("got %v, want %q", result, "five")
	}
}

func TestNonExhaustiveIsWithNoMatchReportsRuntimeError(t *testing.T) {
	source := `x = 9
x is
    1
        "one"
    5
        "five"
`
	var stdout bytes.Buffer
	_, _, err := CompileAndRun(source, "test", &stdout)
	if err == nil {
		t.Fatal("expected a runtime error when no arm matches and there is no catch-all")
	}
}

func TestDivisionByZeroReportsRuntimeError(t *testing.T) {
	var stdout bytes.Buffer
	_, _, err := CompileAndRun("1 / 0\n", "test", &stdout)
	if err == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
}

func TestUnresolvedIdentifierReportsCompileError(t *testing.T) {
	var stdout bytes.Buffer
	_, _, err := CompileAndRun("missing_name\n", "test", &stdout)
	if err == nil {
		t.Fatal("expected a compile error for an unresolved identifier")
	}
}
