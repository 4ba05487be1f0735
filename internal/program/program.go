// Package program ties the pipeline together: lex, parse, compile,
// run. This is the boundary cmd/delta calls; every decision about how
// the four stages compose lives here, not in the CLI.
package program

import (
	"io"

	"github.com/anissen/delta/internal/compiler"
	"github.com/anissen/delta/internal/disasm"
	"github.com/anissen/delta/internal/lexer"
	"github.com/anissen/delta/internal/parser"
	"github.com/anissen/delta/internal/value"
	"github.com/anissen/delta/internal/vm"
)

// CompilationMetadata describes one successful compile.
type CompilationMetadata struct {
	TokenCount    int
	FunctionCount int
	ByteCount     int
}

// ExecutionMetadata describes one successful run.
type ExecutionMetadata struct {
	Result value.Value
	Stats  vm.Stats
}

// Compile runs the lex/parse/compile stages and returns the
// assembled program bytes.
func Compile(source, file string) ([]byte, CompilationMetadata, error) {
	lx := lexer.New(source, file)
	tokens, lerr := lx.Scan()
	if lerr != nil {
		return nil, CompilationMetadata{}, lerr.WithSource(sourceLine(source, lerr.Pos.Line))
	}

	p := parser.New(tokens, source, file)
	ast, perr := p.Parse()
	if perr != nil {
		return nil, CompilationMetadata{}, perr
	}

	bytecodeBytes, cerr := compiler.Compile(ast)
	if cerr != nil {
		return nil, CompilationMetadata{}, cerr
	}

	prog, lerr2 := vm.Load(bytecodeBytes)
	if lerr2 != nil {
		return nil, CompilationMetadata{}, lerr2
	}

	return bytecodeBytes, CompilationMetadata{
		TokenCount:    len(tokens),
		FunctionCount: len(prog.Functions),
		ByteCount:     len(bytecodeBytes),
	}, nil
}

// Run executes already-assembled bytecode bytes.
func Run(bytecodeBytes []byte, stdout io.Writer) (ExecutionMetadata, error) {
	prog, lerr := vm.Load(bytecodeBytes)
	if lerr != nil {
		return ExecutionMetadata{}, lerr
	}
	machine := vm.New(prog, stdout)
	result, stats, rerr := machine.Run()
	if rerr != nil {
		return ExecutionMetadata{}, rerr
	}
	return ExecutionMetadata{Result: result, Stats: stats}, nil
}

// CompileAndRun runs the full pipeline end to end.
func CompileAndRun(source, file string, stdout io.Writer) ([]byte, ExecutionMetadata, error) {
	bytecodeBytes, _, err := Compile(source, file)
	if err != nil {
		return nil, ExecutionMetadata{}, err
	}
	meta, err := Run(bytecodeBytes, stdout)
	if err != nil {
		return bytecodeBytes, ExecutionMetadata{}, err
	}
	return bytecodeBytes, meta, nil
}

// Disassemble renders assembled bytecode as human-readable text.
func Disassemble(bytecodeBytes []byte) string {
	return disasm.Disassemble(bytecodeBytes)
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	n := 1
	start := 0
	for i, c := range source {
		if n == line {
			end := len(source)
			for j := i; j < len(source); j++ {
				if source[j] == '\n' {
					end = j
					break
				}
			}
			return source[start:end]
		}
		if c == '\n' {
			n++
			start = i + 1
		}
	}
	if n == line {
		return source[start:]
	}
	return ""
}
