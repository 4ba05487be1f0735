// Package deltaerr is the single error type shared by every stage of
// the pipeline that can fail: lexing, parsing, compiling, and running.
package deltaerr

import (
	"fmt"
	"strings"

	"github.com/anissen/delta/internal/token"
)

type Kind string

const (
	Lex     Kind = "LexError"
	Parse   Kind = "ParseError"
	Compile Kind = "CompileError"
	Runtime Kind = "RuntimeError"
)

// Error is a positioned failure from one pipeline stage. It carries
// an optional line of source for context, attached by whichever stage
// has the source text in hand.
type Error struct {
	Kind    Kind
	Message string
	Pos     token.Position
	Source  string
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	if e.Pos.Line > 0 {
		fmt.Fprintf(&sb, " (line %d, column %d)", e.Pos.Line, e.Pos.Column)
	}
	if e.Source != "" {
		fmt.Fprintf(&sb, "\n  %d | %s", e.Pos.Line, e.Source)
		if e.Pos.Column > 0 {
			fmt.Fprintf(&sb, "\n  %s^", strings.Repeat(" ", e.Pos.Column+len(fmt.Sprintf("%d | ", e.Pos.Line))-1))
		}
	}
	return sb.String()
}

func New(kind Kind, pos token.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

func NewLex(pos token.Position, format string, args ...interface{}) *Error {
	return New(Lex, pos, format, args...)
}

func NewParse(pos token.Position, format string, args ...interface{}) *Error {
	return New(Parse, pos, format, args...)
}

func NewCompile(pos token.Position, format string, args ...interface{}) *Error {
	return New(Compile, pos, format, args...)
}

func NewRuntime(format string, args ...interface{}) *Error {
	return New(Runtime, token.Position{}, format, args...)
}
