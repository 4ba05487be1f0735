// Package value defines delta's runtime Value: a closed, immutable
// tagged union shared by the compiler's constant handling and the VM's
// stack and locals.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is deliberately represented with Go's native comparable types
// plus small struct variants (SimpleTag, Tag, Function, List), so that
// most of the language's == falls out of Go's own interface equality:
// distinct dynamic types never compare equal, which is exactly how
// SimpleTag(n) and Tag(n, v) must behave. Equal compares Tag payloads
// and List elements itself.
type Value interface{}

// Integer and Float are plain int64/float64. Boolean is bool. String
// is a plain Go string (already immutable, already UTF-8 safe to the
// extent the lexer enforces it).

// SimpleTag is a symbolic tag carrying no payload.
type SimpleTag struct {
	Name string
}

// Tag pairs a name with exactly one payload value.
type Tag struct {
	Name    string
	Payload Value
}

// Function is a handle into the function table.
type Function struct {
	Index int
	Name  string
}

// List is a supplemented value case (not in the closed Value variant
// list the core pipeline specifies, but added at the edge: construction
// and indexing are ordinary opcodes, and List never appears in a
// position the core invariants constrain). Appending returns a new
// List; the backing array is never shared after append.
type List struct {
	Elements []Value
}

func Equal(a, b Value) bool {
	la, aIsList := a.(List)
	lb, bIsList := b.(List)
	if aIsList || bIsList {
		if aIsList != bIsList || len(la.Elements) != len(lb.Elements) {
			return false
		}
		for i := range la.Elements {
			if !Equal(la.Elements[i], lb.Elements[i]) {
				return false
			}
		}
		return true
	}
	ta, aIsTag := a.(Tag)
	tb, bIsTag := b.(Tag)
	if aIsTag || bIsTag {
		if aIsTag != bIsTag {
			return false
		}
		return ta.Name == tb.Name && Equal(ta.Payload, tb.Payload)
	}
	return a == b
}

// ToString implements the interpolation conversion table from the
// virtual machine's string-concatenation semantics.
func ToString(v Value) string {
	switch vv := v.(type) {
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		s := strconv.FormatFloat(vv, 'f', -1, 64)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case string:
		return vv
	case SimpleTag:
		return ":" + vv.Name
	case Tag:
		return ":" + vv.Name + "(" + ToString(vv.Payload) + ")"
	case Function:
		return vv.Name
	case List:
		parts := make([]string, len(vv.Elements))
		for i, e := range vv.Elements {
			parts[i] = ToString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func TypeName(v Value) string {
	switch v.(type) {
	case int64:
		return "Integer"
	case float64:
		return "Float"
	case bool:
		return "Boolean"
	case string:
		return "String"
	case SimpleTag:
		return "SimpleTag"
	case Tag:
		return "Tag"
	case Function:
		return "Function"
	case List:
		return "List"
	default:
		return "Unknown"
	}
}
