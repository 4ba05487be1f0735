package compiler

import (
	"github.com/anissen/delta/internal/ast"
	"github.com/anissen/delta/internal/bytecode"
	"github.com/anissen/delta/internal/token"
)

// funcCompiler compiles one function (or main) body into its chunk.
// It implements ast.Visitor; every Visit* method except VisitLet
// (whose set_value pops the bound value) leaves exactly one value on
// the stack, matching the chunk-result invariant.
type funcCompiler struct {
	c     *Compiler
	chunk *bytecode.Chunk
	scope *funcScope
}

func (fc *funcCompiler) compile(e ast.Expr) { e.Accept(fc) }

func (fc *funcCompiler) compileBlock(b *ast.Block) {
	for _, let := range b.Lets {
		if _, isFn := let.Value.(*ast.Lambda); isFn {
			continue // registered as a named function by collectFunctions, not a local
		}
		fc.compileLet(let)
	}
	fc.compile(b.Final)
}

func (fc *funcCompiler) compileLet(let *ast.Let) {
	fc.compile(let.Value)
	slot := fc.scope.declare(let.Name)
	fc.chunk.WriteOp(bytecode.OpSetValue)
	fc.chunk.WriteByte(byte(slot))
}

func (fc *funcCompiler) VisitInteger(n *ast.Integer) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushInteger)
	fc.chunk.WriteInt32(int32(n.Value))
	return nil
}

func (fc *funcCompiler) VisitFloat(n *ast.Float) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushFloat)
	fc.chunk.WriteFloat32(float32(n.Value))
	return nil
}

func (fc *funcCompiler) VisitBoolean(n *ast.Boolean) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushBoolean)
	if n.Value {
		fc.chunk.WriteByte(1)
	} else {
		fc.chunk.WriteByte(0)
	}
	return nil
}

func (fc *funcCompiler) VisitStringLit(n *ast.StringLit) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushString)
	fc.chunk.WriteString(n.Value)
	return nil
}

// VisitInterpolation lowers "<p0>{e0}<p1>{e1}...<pn>" into a chain of
// push_string / <expr code> / str_concat pairs, always terminated by
// concatenating a final empty string so the concat count is uniform.
func (fc *funcCompiler) VisitInterpolation(n *ast.Interpolation) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushString)
	fc.chunk.WriteString(n.Parts[0])
	for i, expr := range n.Exprs {
		fc.compile(expr)
		fc.coerceToString(expr)
		fc.chunk.WriteOp(bytecode.OpStrConcat)
		fc.chunk.WriteOp(bytecode.OpPushString)
		fc.chunk.WriteString(n.Parts[i+1])
		fc.chunk.WriteOp(bytecode.OpStrConcat)
	}
	fc.chunk.WriteOp(bytecode.OpPushString)
	fc.chunk.WriteString("")
	fc.chunk.WriteOp(bytecode.OpStrConcat)
	return nil
}

// coerceToString is a no-op placeholder for non-string operands: the
// VM's str_concat opcode performs the value-to-string conversion
// itself, so there is no separate to_string instruction to emit here.
func (fc *funcCompiler) coerceToString(ast.Expr) {}

func (fc *funcCompiler) VisitSimpleTag(n *ast.SimpleTagExpr) interface{} {
	fc.chunk.WriteOp(bytecode.OpPushSimpleTag)
	fc.chunk.WriteString(n.Name)
	return nil
}

func (fc *funcCompiler) VisitTag(n *ast.TagExpr) interface{} {
	fc.compile(n.Payload)
	fc.chunk.WriteOp(bytecode.OpPushTag)
	fc.chunk.WriteString(n.Name)
	return nil
}

func (fc *funcCompiler) VisitIdentifier(n *ast.Identifier) interface{} {
	if slot, ok := fc.scope.lookup(n.Name); ok {
		fc.chunk.WriteOp(bytecode.OpGetValue)
		fc.chunk.WriteByte(byte(slot))
		return nil
	}
	if fi, ok := fc.c.functions[n.Name]; ok {
		fc.chunk.WriteOp(bytecode.OpFunction)
		fc.chunk.WriteUint16(uint16(fi.index))
		fc.chunk.WriteByte(byte(fi.paramCount))
		return nil
	}
	fc.c.fail(n.Pos, "unresolved identifier %q", n.Name)
	return nil
}

func (fc *funcCompiler) VisitLet(n *ast.Let) interface{} {
	fc.compileLet(n)
	return nil
}

func (fc *funcCompiler) VisitUnary(n *ast.Unary) interface{} {
	switch n.Op {
	case token.NOT:
		fc.compile(n.Operand)
		fc.chunk.WriteOp(bytecode.OpNot)
	case token.MINUS:
		// -x lowers to 0 - x, typed the same way a binary subtraction
		// would be.
		fc.emitArith(token.MINUS, zeroLiteral(n.Operand, n.Pos), n.Operand)
	default:
		fc.c.fail(n.Pos, "unsupported unary operator %s", n.Op)
	}
	return nil
}

func zeroLiteral(operand ast.Expr, pos token.Position) ast.Expr {
	if inferType(operand) == "float" {
		return &ast.Float{Base: ast.Base{Pos: pos}, Value: 0}
	}
	return &ast.Integer{Base: ast.Base{Pos: pos}, Value: 0}
}

func (fc *funcCompiler) VisitBinary(n *ast.Binary) interface{} {
	switch n.Op {
	case token.AND:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(bytecode.OpAnd)
	case token.OR:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(bytecode.OpOr)
	case token.EQ:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(bytecode.OpEq)
	case token.NEQ:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(bytecode.OpNeq)
	case token.LT, token.GT, token.LE, token.GE:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(intCompareOp(n.Op))
	case token.FLT, token.FGT, token.FLE, token.FGE:
		fc.compile(n.Left)
		fc.compile(n.Right)
		fc.chunk.WriteOp(floatCompareOp(n.Op))
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		fc.emitArith(n.Op, n.Left, n.Right)
	default:
		fc.c.fail(n.Pos, "unsupported binary operator %s", n.Op)
	}
	return nil
}

func intCompareOp(op token.Kind) bytecode.Op {
	switch op {
	case token.LT:
		return bytecode.OpLtInt
	case token.GT:
		return bytecode.OpGtInt
	case token.LE:
		return bytecode.OpLeInt
	default:
		return bytecode.OpGeInt
	}
}

func floatCompareOp(op token.Kind) bytecode.Op {
	switch op {
	case token.FLT:
		return bytecode.OpFloatLt
	case token.FGT:
		return bytecode.OpFloatGt
	case token.FLE:
		return bytecode.OpFloatLe
	default:
		return bytecode.OpFloatGe
	}
}

// emitArith picks a typed opcode when both operands are statically
// known (via literal-derived inference) to be the same numeric type,
// and falls back to the generic runtime-dispatching opcode otherwise.
// Lambda parameters carry no static type, so full static inference is
// not possible in general. There is no typed float modulo opcode, so
// % on two floats also uses the generic opcode.
func (fc *funcCompiler) emitArith(op token.Kind, left, right ast.Expr) {
	fc.compile(left)
	fc.compile(right)
	lt, rt := inferType(left), inferType(right)
	if lt != "" && lt == rt && !(lt == "float" && op == token.PERCENT) {
		fc.chunk.WriteOp(typedArithOp(op, lt))
		return
	}
	fc.chunk.WriteOp(genericArithOp(op))
}

func typedArithOp(op token.Kind, typ string) bytecode.Op {
	if typ == "float" {
		switch op {
		case token.PLUS:
			return bytecode.OpAddFloat
		case token.MINUS:
			return bytecode.OpSubFloat
		case token.STAR:
			return bytecode.OpMulFloat
		default:
			return bytecode.OpDivFloat
		}
	}
	switch op {
	case token.PLUS:
		return bytecode.OpAddInt
	case token.MINUS:
		return bytecode.OpSubInt
	case token.STAR:
		return bytecode.OpMulInt
	case token.SLASH:
		return bytecode.OpDivInt
	default:
		return bytecode.OpModInt
	}
}

func genericArithOp(op token.Kind) bytecode.Op {
	switch op {
	case token.PLUS:
		return bytecode.OpAdd
	case token.MINUS:
		return bytecode.OpSub
	case token.STAR:
		return bytecode.OpMul
	case token.SLASH:
		return bytecode.OpDiv
	default:
		return bytecode.OpMod
	}
}

// inferType does shallow, literal-driven type inference: it never
// looks through identifiers, so any expression touching a parameter
// or call result is "" (unknown), triggering the generic opcode.
func inferType(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Integer:
		return "int"
	case *ast.Float:
		return "float"
	case *ast.Unary:
		if n.Op == token.MINUS {
			return inferType(n.Operand)
		}
		return ""
	case *ast.Binary:
		switch n.Op {
		case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
			lt, rt := inferType(n.Left), inferType(n.Right)
			if lt != "" && lt == rt {
				return lt
			}
		}
		return ""
	default:
		return ""
	}
}

func (fc *funcCompiler) VisitPipeline(n *ast.Pipeline) interface{} {
	fc.compileCall(n.Call, n.Left)
	return nil
}

func (fc *funcCompiler) VisitCall(n *ast.Call) interface{} {
	fc.compileCall(n, nil)
	return nil
}

// compileCall emits argument-evaluation code followed by a call
// instruction. If piped is non-nil, it is prepended as the first
// argument (the pipeline-to-call lowering).
func (fc *funcCompiler) compileCall(call *ast.Call, piped ast.Expr) {
	if b, ok := listBuiltins[call.Callee]; ok {
		fc.compileBuiltinCall(call, piped, b)
		return
	}
	fi, ok := fc.c.functions[call.Callee]
	if !ok {
		fc.c.fail(call.Pos, "unresolved function %q", call.Callee)
	}
	argCount := len(call.Args)
	if piped != nil {
		fc.compile(piped)
		argCount++
	}
	for _, a := range call.Args {
		fc.compile(a)
	}
	if argCount != fi.paramCount {
		fc.c.fail(call.Pos, "function %q expects %d argument(s), got %d", call.Callee, fi.paramCount, argCount)
	}
	fc.chunk.WriteOp(bytecode.OpCall)
	fc.chunk.WriteByte(0) // is_global: reserved, always 0 in this core
	fc.chunk.WriteByte(byte(argCount))
	fc.chunk.WriteUint16(uint16(fi.index))
}

// compileBuiltinCall lowers a call to a list primitive straight to its
// opcode: these have no signature table entry and never go through
// call/ret.
func (fc *funcCompiler) compileBuiltinCall(call *ast.Call, piped ast.Expr, b listBuiltin) {
	argCount := len(call.Args)
	if piped != nil {
		fc.compile(piped)
		argCount++
	}
	for _, a := range call.Args {
		fc.compile(a)
	}
	if argCount != b.argCount {
		fc.c.fail(call.Pos, "%q expects %d argument(s), got %d", call.Callee, b.argCount, argCount)
	}
	fc.chunk.WriteOp(b.op)
}

// VisitLambda is only reached for a lambda that never sat on the
// right-hand side of a let. collectFunctions registers every
// let-bound lambda (at any nesting depth) as a named function before
// any chunk is compiled, so a bare lambda used as, say, a call
// argument or list element has no function slot to reference.
func (fc *funcCompiler) VisitLambda(n *ast.Lambda) interface{} {
	fc.c.fail(n.Pos, "a lambda must be bound by a let before it can be used")
	return nil
}

func (fc *funcCompiler) VisitList(n *ast.ListExpr) interface{} {
	for _, el := range n.Elements {
		fc.compile(el)
	}
	fc.chunk.WriteOp(bytecode.OpPushList)
	fc.chunk.WriteByte(byte(len(n.Elements)))
	return nil
}

func (fc *funcCompiler) VisitLog(n *ast.LogExpr) interface{} {
	fc.compile(n.Value)
	fc.chunk.WriteOp(bytecode.OpLog)
	return nil
}

func (fc *funcCompiler) VisitBlock(n *ast.Block) interface{} {
	fc.compileBlock(n)
	return nil
}
