package bytecode

import "testing"

func TestPatchJumpComputesOffsetRelativeToOperandEnd(t *testing.T) {
	c := NewChunk()
	pos := c.EmitJump(OpJump)
	c.WriteOp(OpPop)
	c.WriteOp(OpPop)
	c.PatchJump(pos)

	got := int16(c.Code[pos])<<8 | int16(c.Code[pos+1])
	want := int16(2) // two OpPop bytes follow the 2-byte operand
	if got != want {
		t.Fatalf("got offset %d, want %d", got, want)
	}
}

func TestPatchJumpToComputesOffsetFromExplicitTarget(t *testing.T) {
	c := NewChunk()
	pos := c.EmitJump(OpJumpIfFalse)
	c.WriteOp(OpPop)
	target := c.Len()
	c.WriteOp(OpPop)
	c.PatchJumpTo(pos, target)

	got := int16(c.Code[pos])<<8 | int16(c.Code[pos+1])
	want := int16(1) // one OpPop byte between the operand and target
	if got != want {
		t.Fatalf("got offset %d, want %d", got, want)
	}
}

func TestWriteStringUsesOneByteLengthPrefix(t *testing.T) {
	c := NewChunk()
	c.WriteString("ab")
	if len(c.Code) != 3 {
		t.Fatalf("expected 1 length byte + 2 content bytes, got %d bytes", len(c.Code))
	}
	if c.Code[0] != 2 {
		t.Fatalf("expected length prefix 2, got %d", c.Code[0])
	}
	if string(c.Code[1:]) != "ab" {
		t.Fatalf("expected content %q, got %q", "ab", c.Code[1:])
	}
}

func TestWriteFloat32RoundTripsThroughBigEndianBits(t *testing.T) {
	c := NewChunk()
	c.WriteFloat32(1.5)
	if len(c.Code) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(c.Code))
	}
	// 1.5 as IEEE-754 single precision is 0x3FC00000.
	want := []byte{0x3F, 0xC0, 0x00, 0x00}
	for i, b := range want {
		if c.Code[i] != b {
			t.Fatalf("byte %d: got 0x%02X, want 0x%02X", i, c.Code[i], b)
		}
	}
}
