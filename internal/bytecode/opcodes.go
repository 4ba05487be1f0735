// Package bytecode defines delta's instruction encoding: the opcode
// vocabulary, the function signature table, and an assembler that lays
// chunks out into one contiguous program byte stream.
package bytecode

type Op byte

const (
	OpAddInt   Op = 0x01
	OpSubInt   Op = 0x02
	OpMulInt   Op = 0x03
	OpDivInt   Op = 0x04
	OpModInt   Op = 0x05
	OpAddFloat Op = 0x06
	OpSubFloat Op = 0x07
	OpMulFloat Op = 0x08
	OpDivFloat Op = 0x09
	OpLtInt    Op = 0x0A
	OpGtInt    Op = 0x0B
	OpLeInt    Op = 0x0C
	OpGeInt    Op = 0x0D

	OpStrConcat Op = 0x0E
	OpAnd       Op = 0x0F
	OpOr        Op = 0x10
	OpEq        Op = 0x11
	OpNeq       Op = 0x12
	OpNot       Op = 0x13

	OpGetValue Op = 0x14
	OpSetValue Op = 0x15

	OpPushBoolean Op = 0x16
	OpPop         Op = 0x17

	OpPushFloat     Op = 0x18
	OpPushInteger   Op = 0x19
	OpPushString    Op = 0x1A
	OpPushSimpleTag Op = 0x1B
	OpPushTag       Op = 0x1C
	OpGetTagName    Op = 0x1D
	OpGetTagPayload Op = 0x1E

	OpFunctionSignature Op = 0x1F
	OpFunctionChunk     Op = 0x20
	OpFunction          Op = 0x21
	OpRet               Op = 0x22
	OpCall              Op = 0x23

	OpPushList Op = 0x24
	OpLog      Op = 0x25

	OpJump        Op = 0x26
	OpJumpIfFalse Op = 0x28

	OpFloatLt Op = 0x29
	OpFloatGt Op = 0x2A
	OpFloatLe Op = 0x2B
	OpFloatGe Op = 0x2C

	// Generic, runtime-typed arithmetic: used whenever the compiler's
	// bottom-up literal-type inference can't prove both operands are
	// the same numeric type at compile time (e.g. either operand is an
	// identifier), and for % on two floats, which has no typed opcode.
	// The typed Op*Int/Op*Float variants above are only emitted when
	// both operands are statically known.
	OpAdd Op = 0x2D
	OpSub Op = 0x2E
	OpMul Op = 0x2F
	OpDiv Op = 0x30
	OpMod Op = 0x31

	// List operations: index, length, and immutable append.
	OpGetListElement Op = 0x32
	OpGetListLength  Op = 0x33
	OpListAppend     Op = 0x34

	// OpNoMatch is emitted at the end of an is-expression that has no
	// catch-all arm, reached only when every preceding arm's test or
	// guard failed. It raises a runtime error rather than letting
	// execution fall through with no value produced.
	OpNoMatch Op = 0x35
)

var names = map[Op]string{
	OpAddInt:   "add_int",
	OpSubInt:   "sub_int",
	OpMulInt:   "mul_int",
	OpDivInt:   "div_int",
	OpModInt:   "mod_int",
	OpAddFloat: "add_float",
	OpSubFloat: "sub_float",
	OpMulFloat: "mul_float",
	OpDivFloat: "div_float",
	OpLtInt:    "lt_int",
	OpGtInt:    "gt_int",
	OpLeInt:    "le_int",
	OpGeInt:    "ge_int",

	OpStrConcat: "str_concat",
	OpAnd:       "and",
	OpOr:        "or",
	OpEq:        "eq",
	OpNeq:       "neq",
	OpNot:       "not",

	OpGetValue: "get_value",
	OpSetValue: "set_value",

	OpPushBoolean: "push_boolean",
	OpPop:         "pop",

	OpPushFloat:     "push_float",
	OpPushInteger:   "push_integer",
	OpPushString:    "push_string",
	OpPushSimpleTag: "push_simple_tag",
	OpPushTag:       "push_tag",
	OpGetTagName:    "get_tag_name",
	OpGetTagPayload: "get_tag_payload",

	OpFunctionSignature: "function_signature",
	OpFunctionChunk:     "function_chunk",
	OpFunction:          "function",
	OpRet:               "ret",
	OpCall:              "call",

	OpLog: "log",

	OpJump:        "jump",
	OpJumpIfFalse: "jump_if_false",

	OpFloatLt: "float_lt",
	OpFloatGt: "float_gt",
	OpFloatLe: "float_le",
	OpFloatGe: "float_ge",

	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpMod: "mod",

	OpPushList:       "push_list",
	OpGetListElement: "get_list_element",
	OpGetListLength:  "get_list_length",
	OpListAppend:     "list_append",

	OpNoMatch: "no_match",
}

func (o Op) String() string {
	if s, ok := names[o]; ok {
		return s
	}
	return "unknown"
}
