package program

import (
	"fmt"
	"io"

	"github.com/kr/pretty"

	"github.com/anissen/delta/internal/vm"
)

// DebugDump prints the bytecode array, its length, the disassembly,
// the result, and the VM statistics block, in that order, for --debug
// mode. Structured values (the byte array, the result, the stats
// block) go through
// kr/pretty for a readable multi-line dump.
func DebugDump(w io.Writer, bytecodeBytes []byte, result interface{}, stats vm.Stats) {
	fmt.Fprintln(w, "bytecode:")
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(bytecodeBytes))
	fmt.Fprintf(w, "length: %d\n", len(bytecodeBytes))
	fmt.Fprintln(w, "disassembly:")
	fmt.Fprintln(w, Disassemble(bytecodeBytes))
	fmt.Fprintln(w, "result:")
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(result))
	fmt.Fprintln(w, "stats:")
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(stats))
}
