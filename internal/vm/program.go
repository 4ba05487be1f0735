package vm

import (
	"encoding/binary"

	"github.com/anissen/delta/internal/bytecode"
	"github.com/anissen/delta/internal/deltaerr"
)

// FunctionEntry is one parsed function_signature table row.
type FunctionEntry struct {
	Name        string
	LocalCount  byte
	ChunkOffset int
}

// Program is the loaded, ready-to-run form of an assembled byte
// stream: the signature table plus where the main chunk begins.
type Program struct {
	Bytes          []byte
	Functions      []FunctionEntry
	MainOffset     int
	MainLocalCount byte
}

// Load parses the function signature table at the front of prog,
// stopping at the function_chunk_header that marks main's start.
func Load(prog []byte) (*Program, *deltaerr.Error) {
	pos := 0
	var functions []FunctionEntry
	for pos < len(prog) && bytecode.Op(prog[pos]) == bytecode.OpFunctionSignature {
		pos++
		nameLen := int(prog[pos])
		pos++
		name := string(prog[pos : pos+nameLen])
		pos += nameLen
		localCount := prog[pos]
		pos++
		offset := int(binary.BigEndian.Uint16(prog[pos : pos+2]))
		pos += 2
		functions = append(functions, FunctionEntry{Name: name, LocalCount: localCount, ChunkOffset: offset})
	}
	if pos >= len(prog) || bytecode.Op(prog[pos]) != bytecode.OpFunctionChunk {
		return nil, deltaerr.NewRuntime("malformed program: missing main chunk header")
	}
	mainOffset := pos
	pos++
	nameLen := int(prog[pos])
	pos++
	pos += nameLen
	mainLocalCount := prog[pos]

	return &Program{
		Bytes:          prog,
		Functions:      functions,
		MainOffset:     mainOffset,
		MainLocalCount: mainLocalCount,
	}, nil
}

// skipChunkHeader advances past a function_chunk_header at pos and
// returns the position of the chunk's first real instruction.
func skipChunkHeader(prog []byte, pos int) int {
	pos++ // opcode
	nameLen := int(prog[pos])
	pos++
	pos += nameLen
	pos++ // local_count
	return pos
}
