package compiler

import "github.com/anissen/delta/internal/bytecode"

// listBuiltin describes a call-syntax name that lowers directly to a
// VM opcode instead of the call/ret convention. These are primitives,
// not user-defined functions, so there is no signature table entry for
// them.
type listBuiltin struct {
	argCount int
	op       bytecode.Op
}

var listBuiltins = map[string]listBuiltin{
	"get_list_element": {argCount: 2, op: bytecode.OpGetListElement},
	"get_list_length":  {argCount: 1, op: bytecode.OpGetListLength},
	"list_append":      {argCount: 2, op: bytecode.OpListAppend},
}
