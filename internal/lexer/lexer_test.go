package lexer

import (
	"testing"

	"github.com/anissen/delta/internal/token"
)

func kinds(tokens []token.Token) []token.Kind {
	ks := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanLiterals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []token.Kind
	}{
		{
			name:   "integer",
			source: "42",
			want:   []token.Kind{token.INTEGER, token.NEWLINE, token.EOF},
		},
		{
			name:   "negative literal not preceded by operand",
			source: "-3.2",
			want:   []token.Kind{token.FLOAT, token.NEWLINE, token.EOF},
		},
		{
			name:   "minus as binary operator after operand",
			source: "a - 3",
			want:   []token.Kind{token.IDENT, token.MINUS, token.INTEGER, token.NEWLINE, token.EOF},
		},
		{
			name:   "tag without payload",
			source: ":red",
			want:   []token.Kind{token.TAG, token.NEWLINE, token.EOF},
		},
		{
			name:   "float comparison operator",
			source: "v >. 0.0",
			want:   []token.Kind{token.IDENT, token.FGT, token.FLOAT, token.NEWLINE, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := New(tt.source, "test").Scan()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanIndentation(t *testing.T) {
	source := "a = 1\nb =\n    2\nb\n"
	toks, err := New(source, "test").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := kinds(toks)
	want := []token.Kind{
		token.IDENT, token.EQUAL, token.INTEGER, token.NEWLINE,
		token.IDENT, token.EQUAL, token.NEWLINE,
		token.INDENT, token.INTEGER, token.NEWLINE,
		token.DEDENT, token.IDENT, token.NEWLINE,
		token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v (%d tokens), want %v (%d tokens)", got, len(got), want, len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanStringInterpolation(t *testing.T) {
	toks, err := New(`"Result: {40 + 2}"`, "test").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := kinds(toks)
	want := []token.Kind{
		token.STRING, token.INTERP_BEGIN, token.INTEGER, token.PLUS, token.INTEGER,
		token.INTERP_END, token.STRING, token.NEWLINE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanUnterminatedStringFails(t *testing.T) {
	_, err := New(`"abc`, "test").Scan()
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}

func TestScanInconsistentIndentationFails(t *testing.T) {
	source := "a =\n    1\n  2\n"
	_, err := New(source, "test").Scan()
	if err == nil {
		t.Fatal("expected an error for inconsistent indentation")
	}
}
