// Package disasm renders an assembled delta program as human-readable
// text: one line per instruction, in
// "<offset>\t<mnemonic> (<operand>: <value>) ..." form.
package disasm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/anissen/delta/internal/bytecode"
)

// Disassemble renders the full program byte stream: the signature
// table, then the main chunk, then every function chunk.
func Disassemble(prog []byte) string {
	var sb strings.Builder
	pos := 0

	for pos < len(prog) && bytecode.Op(prog[pos]) == bytecode.OpFunctionSignature {
		start := pos
		pos++
		nameLen := int(prog[pos])
		pos++
		name := string(prog[pos : pos+nameLen])
		pos += nameLen
		localCount := prog[pos]
		pos++
		offset := binary.BigEndian.Uint16(prog[pos : pos+2])
		pos += 2
		fmt.Fprintf(&sb, "%d\tfunction signature (name: %q, local_count: %d, chunk_offset: %d)\n", start, name, localCount, offset)
	}

	for pos < len(prog) {
		pos = disassembleOne(&sb, prog, pos)
	}
	return sb.String()
}

func disassembleOne(sb *strings.Builder, prog []byte, pos int) int {
	start := pos
	op := bytecode.Op(prog[pos])
	pos++

	switch op {
	case bytecode.OpFunctionChunk:
		nameLen := int(prog[pos])
		pos++
		name := string(prog[pos : pos+nameLen])
		pos += nameLen
		localCount := prog[pos]
		pos++
		fmt.Fprintf(sb, "%d\t=== function chunk: %s ===\t(local_count: %d)\n", start, name, localCount)

	case bytecode.OpGetValue, bytecode.OpSetValue, bytecode.OpPushBoolean:
		idx := prog[pos]
		pos++
		fmt.Fprintf(sb, "%d\t%s (index: %d)\n", start, op, idx)

	case bytecode.OpPushInteger:
		v := int32(binary.BigEndian.Uint32(prog[pos : pos+4]))
		pos += 4
		fmt.Fprintf(sb, "%d\t%s (value: %d)\n", start, op, v)

	case bytecode.OpPushFloat:
		bits := binary.BigEndian.Uint32(prog[pos : pos+4])
		pos += 4
		fmt.Fprintf(sb, "%d\t%s (value: %g)\n", start, op, math.Float32frombits(bits))

	case bytecode.OpPushString, bytecode.OpPushSimpleTag, bytecode.OpPushTag:
		n := int(prog[pos])
		pos++
		s := string(prog[pos : pos+n])
		pos += n
		fmt.Fprintf(sb, "%d\t%s (name: %q)\n", start, op, s)

	case bytecode.OpFunction:
		idx := binary.BigEndian.Uint16(prog[pos : pos+2])
		pos += 2
		paramCount := prog[pos]
		pos++
		fmt.Fprintf(sb, "%d\t%s (fn_index: %d, param_count: %d)\n", start, op, idx, paramCount)

	case bytecode.OpCall:
		isGlobal := prog[pos]
		pos++
		argCount := prog[pos]
		pos++
		fnIndex := binary.BigEndian.Uint16(prog[pos : pos+2])
		pos += 2
		fmt.Fprintf(sb, "%d\t%s (is_global: %d, arg_count: %d, fn_index: %d)\n", start, op, isGlobal, argCount, fnIndex)

	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		offset := int16(binary.BigEndian.Uint16(prog[pos : pos+2]))
		pos += 2
		fmt.Fprintf(sb, "%d\t%s (offset: %d)\n", start, op, offset)

	case bytecode.OpPushList, bytecode.OpListAppend:
		if op == bytecode.OpPushList {
			count := prog[pos]
			pos++
			fmt.Fprintf(sb, "%d\t%s (count: %d)\n", start, op, count)
		} else {
			fmt.Fprintf(sb, "%d\t%s ()\n", start, op)
		}

	default:
		fmt.Fprintf(sb, "%d\t%s ()\n", start, op)
	}

	return pos
}
