package vm

import (
	"bytes"
	"testing"

	"github.com/anissen/delta/internal/bytecode"
	"github.com/anissen/delta/internal/value"
)

func runProgram(t *testing.T, mainLocals byte, chunk *bytecode.Chunk, functions []bytecode.Function) (value.Value, Stats) {
	t.Helper()
	out := bytecode.Assemble(mainLocals, chunk, functions)
	prog, lerr := Load(out)
	if lerr != nil {
		t.Fatalf("load error: %v", lerr)
	}
	var stdout bytes.Buffer
	result, stats, rerr := New(prog, &stdout).Run()
	if rerr != nil {
		t.Fatalf("runtime error: %v", rerr)
	}
	return result, stats
}

func TestRunIntegerArithmetic(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(40)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(2)
	c.WriteOp(bytecode.OpAddInt)
	c.WriteOp(bytecode.OpRet)

	result, _ := runProgram(t, 0, c, nil)
	if result != int64(42) {
		t.Fatalf("got %v, want 42", result)
	}
}

func TestRunDivisionByZeroFails(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(1)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(0)
	c.WriteOp(bytecode.OpDivInt)
	c.WriteOp(bytecode.OpRet)

	out := bytecode.Assemble(0, c, nil)
	prog, lerr := Load(out)
	if lerr != nil {
		t.Fatalf("load error: %v", lerr)
	}
	var stdout bytes.Buffer
	_, _, rerr := New(prog, &stdout).Run()
	if rerr == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
}

func TestRunTagIdentity(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushSimpleTag)
	c.WriteString("red")
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(1)
	c.WriteOp(bytecode.OpPushTag)
	c.WriteString("red")
	c.WriteOp(bytecode.OpEq)
	c.WriteOp(bytecode.OpRet)

	result, _ := runProgram(t, 0, c, nil)
	if result != false {
		t.Fatalf("got %v, want false: SimpleTag(red) must never equal Tag(red, 1)", result)
	}
}

func TestRunJumpIfFalseSkipsThenBranch(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushBoolean)
	c.WriteByte(0)
	jmp := c.EmitJump(bytecode.OpJumpIfFalse)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(1)
	skip := c.EmitJump(bytecode.OpJump)
	c.PatchJump(jmp)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(2)
	c.PatchJump(skip)
	c.WriteOp(bytecode.OpRet)

	result, stats := runProgram(t, 0, c, nil)
	if result != int64(2) {
		t.Fatalf("got %v, want 2", result)
	}
	if stats.JumpsPerformed != 1 {
		t.Fatalf("expected exactly 1 jump performed, got %d", stats.JumpsPerformed)
	}
}

func TestRunCallAndReturn(t *testing.T) {
	fn := bytecode.NewChunk()
	fn.WriteOp(bytecode.OpGetValue)
	fn.WriteByte(0)
	fn.WriteOp(bytecode.OpPushInteger)
	fn.WriteInt32(1)
	fn.WriteOp(bytecode.OpAddInt)
	fn.WriteOp(bytecode.OpRet)

	main := bytecode.NewChunk()
	main.WriteOp(bytecode.OpPushInteger)
	main.WriteInt32(41)
	main.WriteOp(bytecode.OpCall)
	main.WriteByte(0)
	main.WriteByte(1)
	main.WriteUint16(0)
	main.WriteOp(bytecode.OpRet)

	result, _ := runProgram(t, 0, main, []bytecode.Function{
		{Name: "inc", ParamCount: 1, LocalCount: 1, Chunk: fn},
	})
	if result != int64(42) {
		t.Fatalf("got %v, want 42", result)
	}
}

func TestRunListConstructionAndIndexing(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(10)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(20)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(30)
	c.WriteOp(bytecode.OpPushList)
	c.WriteByte(3)
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(1)
	c.WriteOp(bytecode.OpGetListElement)
	c.WriteOp(bytecode.OpRet)

	result, _ := runProgram(t, 0, c, nil)
	if result != int64(20) {
		t.Fatalf("got %v, want 20", result)
	}
}

func TestRunStrConcatConvertsRightOperand(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPushString)
	c.WriteString("n=")
	c.WriteOp(bytecode.OpPushInteger)
	c.WriteInt32(7)
	c.WriteOp(bytecode.OpStrConcat)
	c.WriteOp(bytecode.OpRet)

	result, _ := runProgram(t, 0, c, nil)
	if result != "n=7" {
		t.Fatalf("got %v, want n=7", result)
	}
}
