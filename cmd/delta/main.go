// Command delta runs a delta source file: lex, parse, compile, execute,
// and print the result. Pass --debug to also dump the bytecode,
// disassembly, and VM statistics.
package main

import (
	"fmt"
	"os"

	"github.com/anissen/delta/internal/program"
	"github.com/anissen/delta/internal/value"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var path string
	debug := false
	for _, arg := range args {
		switch arg {
		case "--debug":
			debug = true
		default:
			if path == "" {
				path = arg
			}
		}
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: delta <path-to-source> [--debug]")
		return 1
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	bytecodeBytes, _, cerr := program.Compile(string(source), path)
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
		return 1
	}

	meta, rerr := program.Run(bytecodeBytes, os.Stdout)
	if rerr != nil {
		fmt.Fprintln(os.Stderr, rerr)
		return 1
	}

	if debug {
		program.DebugDump(os.Stdout, bytecodeBytes, meta.Result, meta.Stats)
	}

	fmt.Println(value.ToString(meta.Result))
	return 0
}
