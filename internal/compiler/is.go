package compiler

import (
	"github.com/anissen/delta/internal/ast"
	"github.com/anissen/delta/internal/bytecode"
)

// VisitIs lowers a match expression into a linear chain of
// predicate + conditional-jump blocks terminating in a common join
// point, per the pattern-to-test table: each arm re-fetches the
// scrutinee, tests its discriminator, optionally binds a payload or
// the whole value, evaluates an optional guard, then runs its body.
//
// An arm is exhaustive only if it is last and has no test/guard jumps
// at all (an unguarded wildcard or binding catch-all); every other
// arm, including a non-exhaustive last one, needs an unconditional
// jump past the rest of the chain once its body has run, so a
// successful match never falls through into the next arm's test code
// or into the no_match instruction appended for a non-exhaustive last
// arm. That arm's own failed test/guard jumps are patched to land on
// no_match instead of the join point, so a failed final test raises a
// runtime error instead of reaching the join point with nothing on
// the stack.
func (fc *funcCompiler) VisitIs(n *ast.Is) interface{} {
	fc.compile(n.Scrutinee)
	scrutSlot := fc.scope.allocSlot()
	fc.chunk.WriteOp(bytecode.OpSetValue)
	fc.chunk.WriteByte(byte(scrutSlot))

	// One slot, reused across every arm of this is-expression, for
	// whichever binding (payload capture or catch-all identifier) an
	// arm introduces.
	bindSlot := fc.scope.allocSlot()

	var matchEndJumps []int
	var lastArmEndJumps []int
	for i, arm := range n.Arms {
		isLast := i == len(n.Arms)-1
		armEndJumps := fc.compileArm(arm, scrutSlot, bindSlot, isLast)
		fc.compileArmBody(arm)

		exhaustive := isLast && len(armEndJumps) == 0
		if !exhaustive {
			matchEndJumps = append(matchEndJumps, fc.chunk.EmitJump(bytecode.OpJump))
		}
		if isLast {
			lastArmEndJumps = armEndJumps
		} else {
			for _, pos := range armEndJumps {
				fc.chunk.PatchJump(pos)
			}
		}
	}
	if len(lastArmEndJumps) > 0 {
		for _, pos := range lastArmEndJumps {
			fc.chunk.PatchJump(pos)
		}
		fc.chunk.WriteOp(bytecode.OpNoMatch)
	}
	for _, pos := range matchEndJumps {
		fc.chunk.PatchJump(pos)
	}
	return nil
}

// compileArmBody evaluates the guard-passed arm body. Any identifier
// binding the arm introduced stays mapped to the shared bind slot
// afterwards; nothing it shadowed is restored (see rebind).
func (fc *funcCompiler) compileArmBody(arm ast.Arm) {
	body, ok := arm.Body.(*ast.Block)
	if !ok {
		fc.compile(arm.Body)
		return
	}
	fc.compileBlock(body)
}

// compileArm emits the discriminator test and guard for one arm,
// returning the jump positions that must be patched to land at the
// start of the next arm (or on the no_match instruction, for the last
// arm).
func (fc *funcCompiler) compileArm(arm ast.Arm, scrutSlot, bindSlot int, isLast bool) []int {
	var jumps []int

	switch pat := arm.Pattern.(type) {
	case ast.WildcardPattern:
		// always matches; no test, no binding.
	case ast.BindingPattern:
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.chunk.WriteOp(bytecode.OpSetValue)
		fc.chunk.WriteByte(byte(bindSlot))
		fc.rebind(pat.Name, bindSlot)
	case ast.LiteralPattern:
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.compile(pat.Value)
		fc.chunk.WriteOp(bytecode.OpEq)
		jumps = append(jumps, fc.chunk.EmitJump(bytecode.OpJumpIfFalse))
	case ast.SimpleTagPattern:
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.chunk.WriteOp(bytecode.OpPushSimpleTag)
		fc.chunk.WriteString(pat.Name)
		fc.chunk.WriteOp(bytecode.OpEq)
		jumps = append(jumps, fc.chunk.EmitJump(bytecode.OpJumpIfFalse))
	case ast.TagPattern:
		jumps = append(jumps, fc.compileTagPattern(pat, scrutSlot, bindSlot)...)
	default:
		fc.c.fail(arm.Pattern.Position(), "unsupported pattern")
	}

	if arm.Guard != nil {
		fc.compile(arm.Guard)
		jumps = append(jumps, fc.chunk.EmitJump(bytecode.OpJumpIfFalse))
	}
	return jumps
}

func (fc *funcCompiler) compileTagPattern(pat ast.TagPattern, scrutSlot, bindSlot int) []int {
	var jumps []int
	switch payload := pat.Payload.(type) {
	case ast.BindingPattern:
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.chunk.WriteOp(bytecode.OpGetTagName)
		fc.chunk.WriteOp(bytecode.OpPushString)
		fc.chunk.WriteString(pat.Name)
		fc.chunk.WriteOp(bytecode.OpEq)
		jumps = append(jumps, fc.chunk.EmitJump(bytecode.OpJumpIfFalse))
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.chunk.WriteOp(bytecode.OpGetTagPayload)
		fc.chunk.WriteOp(bytecode.OpSetValue)
		fc.chunk.WriteByte(byte(bindSlot))
		fc.rebind(payload.Name, bindSlot)
	case ast.LiteralPattern:
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(scrutSlot))
		fc.compile(payload.Value)
		fc.chunk.WriteOp(bytecode.OpPushTag)
		fc.chunk.WriteString(pat.Name)
		fc.chunk.WriteOp(bytecode.OpEq)
		jumps = append(jumps, fc.chunk.EmitJump(bytecode.OpJumpIfFalse))
	default:
		fc.c.fail(pat.Pos, "unsupported tag payload pattern")
	}
	return jumps
}

// rebind assigns name to slot for the rest of this arm's compilation.
// Because every arm of an is-expression shares bindSlot, rebinding
// simply overwrites any prior arm's use of that name; there is no
// restore, since is-arm scoping is flat and non-nested.
func (fc *funcCompiler) rebind(name string, slot int) {
	fc.scope.slots[name] = slot
}
