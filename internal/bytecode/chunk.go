package bytecode

import (
	"encoding/binary"
	"math"
)

// Chunk accumulates one function's (or main's) instruction bytes. A
// jump instruction's offset operand is patched after the jump target
// is known, via the position returned by EmitJump.
type Chunk struct {
	Code []byte
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) Len() int { return len(c.Code) }

func (c *Chunk) WriteOp(op Op) {
	c.Code = append(c.Code, byte(op))
}

func (c *Chunk) WriteByte(b byte) {
	c.Code = append(c.Code, b)
}

func (c *Chunk) WriteUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.Code = append(c.Code, buf[:]...)
}

func (c *Chunk) WriteInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	c.Code = append(c.Code, buf[:]...)
}

// WriteFloat32 stores the value truncated to IEEE-754 single
// precision: push_float is encoded 4 bytes wide even though the
// runtime Value is a double, and the VM widens on load.
func (c *Chunk) WriteFloat32(v float32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
	c.Code = append(c.Code, buf[:]...)
}

func (c *Chunk) WriteString(s string) {
	c.Code = append(c.Code, byte(len(s)))
	c.Code = append(c.Code, []byte(s)...)
}

// EmitJump writes the opcode plus a placeholder i16 offset and returns
// the byte position of the placeholder, to be patched by PatchJump
// once the target offset is known.
func (c *Chunk) EmitJump(op Op) int {
	c.WriteOp(op)
	pos := len(c.Code)
	c.Code = append(c.Code, 0, 0)
	return pos
}

// PatchJump fills in the offset at pos, relative to the byte
// immediately after the 2-byte operand (i.e. to len(c.Code) at the
// time PatchJump is called, interpreted as "jump to the current end").
func (c *Chunk) PatchJump(pos int) {
	offset := int16(len(c.Code) - (pos + 2))
	binary.BigEndian.PutUint16(c.Code[pos:pos+2], uint16(offset))
}

// PatchJumpTo patches pos to jump to an explicit absolute offset
// within the same chunk.
func (c *Chunk) PatchJumpTo(pos, target int) {
	offset := int16(target - (pos + 2))
	binary.BigEndian.PutUint16(c.Code[pos:pos+2], uint16(offset))
}
