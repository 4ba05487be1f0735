package bytecode

import "encoding/binary"

// Function is one compiled named function, ready to be laid out
// into a final program alongside its signature table entry.
type Function struct {
	Name       string
	ParamCount byte
	LocalCount byte
	Chunk      *Chunk
}

// Assemble lays out the final program byte stream:
//
//	[signature0 signature1 ... signatureN] [main chunk] [chunk0 ... chunkN]
//
// Signatures are written first with placeholder offsets, since a
// function's absolute byte offset isn't known until every chunk ahead
// of it has been laid out; the offsets are patched once the full
// layout is computed.
func Assemble(mainLocalCount byte, mainChunk *Chunk, functions []Function) []byte {
	var out []byte

	sigPositions := make([]int, len(functions))
	for i, fn := range functions {
		out = append(out, byte(OpFunctionSignature))
		out = append(out, byte(len(fn.Name)))
		out = append(out, []byte(fn.Name)...)
		out = append(out, fn.LocalCount)
		sigPositions[i] = len(out)
		out = append(out, 0, 0) // placeholder chunk_offset
	}

	out = append(out, byte(OpFunctionChunk))
	out = append(out, byte(len("main")))
	out = append(out, []byte("main")...)
	out = append(out, mainLocalCount)
	out = append(out, mainChunk.Code...)

	for i, fn := range functions {
		offset := len(out)
		out = append(out, byte(OpFunctionChunk))
		out = append(out, byte(len(fn.Name)))
		out = append(out, []byte(fn.Name)...)
		out = append(out, fn.LocalCount)
		out = append(out, fn.Chunk.Code...)
		binary.BigEndian.PutUint16(out[sigPositions[i]:sigPositions[i]+2], uint16(offset))
	}

	return out
}
