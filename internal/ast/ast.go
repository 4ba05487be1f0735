// Package ast defines delta's expression tree. Every node is an
// expression (the language is expression-oriented; statements are
// just expressions whose value is discarded, save for `let`, which
// binds a name).
package ast

import "github.com/anissen/delta/internal/token"

type Expr interface {
	Accept(v Visitor) interface{}
	Position() token.Position
}

type Visitor interface {
	VisitInteger(*Integer) interface{}
	VisitFloat(*Float) interface{}
	VisitBoolean(*Boolean) interface{}
	VisitStringLit(*StringLit) interface{}
	VisitInterpolation(*Interpolation) interface{}
	VisitSimpleTag(*SimpleTagExpr) interface{}
	VisitTag(*TagExpr) interface{}
	VisitIdentifier(*Identifier) interface{}
	VisitLet(*Let) interface{}
	VisitBinary(*Binary) interface{}
	VisitUnary(*Unary) interface{}
	VisitPipeline(*Pipeline) interface{}
	VisitCall(*Call) interface{}
	VisitLambda(*Lambda) interface{}
	VisitList(*ListExpr) interface{}
	VisitLog(*LogExpr) interface{}
	VisitIs(*Is) interface{}
	VisitBlock(*Block) interface{}
}

type Base struct {
	Pos token.Position
}

func (b Base) Position() token.Position { return b.Pos }

type Integer struct {
	Base
	Value int64
}

func (n *Integer) Accept(v Visitor) interface{} { return v.VisitInteger(n) }

type Float struct {
	Base
	Value float64
}

func (n *Float) Accept(v Visitor) interface{} { return v.VisitFloat(n) }

type Boolean struct {
	Base
	Value bool
}

func (n *Boolean) Accept(v Visitor) interface{} { return v.VisitBoolean(n) }

type StringLit struct {
	Base
	Value string
}

func (n *StringLit) Accept(v Visitor) interface{} { return v.VisitStringLit(n) }

// Interpolation is a "<lit> {expr} <lit> {expr> ... <lit>" string.
// Parts always has one more entry than Exprs (the leading literal
// segment, possibly empty).
type Interpolation struct {
	Base
	Parts []string
	Exprs []Expr
}

func (n *Interpolation) Accept(v Visitor) interface{} { return v.VisitInterpolation(n) }

type SimpleTagExpr struct {
	Base
	Name string
}

func (n *SimpleTagExpr) Accept(v Visitor) interface{} { return v.VisitSimpleTag(n) }

type TagExpr struct {
	Base
	Name    string
	Payload Expr
}

func (n *TagExpr) Accept(v Visitor) interface{} { return v.VisitTag(n) }

type Identifier struct {
	Base
	Name string
}

func (n *Identifier) Accept(v Visitor) interface{} { return v.VisitIdentifier(n) }

// Let is a top-level or body-sequence binding: `name = value`.
type Let struct {
	Base
	Name  string
	Value Expr
}

func (n *Let) Accept(v Visitor) interface{} { return v.VisitLet(n) }

type Binary struct {
	Base
	Op    token.Kind
	Left  Expr
	Right Expr
}

func (n *Binary) Accept(v Visitor) interface{} { return v.VisitBinary(n) }

type Unary struct {
	Base
	Op      token.Kind
	Operand Expr
}

func (n *Unary) Accept(v Visitor) interface{} { return v.VisitUnary(n) }

// Pipeline is `Left | Call`; Call's first argument becomes Left.
type Pipeline struct {
	Base
	Left Expr
	Call *Call
}

func (n *Pipeline) Accept(v Visitor) interface{} { return v.VisitPipeline(n) }

type Call struct {
	Base
	Callee string
	Args   []Expr
}

func (n *Call) Accept(v Visitor) interface{} { return v.VisitCall(n) }

type Lambda struct {
	Base
	Params []string
	Body   Expr
}

func (n *Lambda) Accept(v Visitor) interface{} { return v.VisitLambda(n) }

// ListExpr is a supplemented list literal `[e1, e2, ...]`.
type ListExpr struct {
	Base
	Elements []Expr
}

func (n *ListExpr) Accept(v Visitor) interface{} { return v.VisitList(n) }

// LogExpr is the supplemented `log expr` builtin.
type LogExpr struct {
	Base
	Value Expr
}

func (n *LogExpr) Accept(v Visitor) interface{} { return v.VisitLog(n) }

// Pattern is one arm's discriminator in an `is` expression.
type Pattern interface {
	Position() token.Position
}

type LiteralPattern struct {
	Pos   token.Position
	Value Expr // Integer, Float, Boolean, or StringLit
}

func (p LiteralPattern) Position() token.Position { return p.Pos }

type SimpleTagPattern struct {
	Pos  token.Position
	Name string
}

func (p SimpleTagPattern) Position() token.Position { return p.Pos }

// TagPattern matches `:name <payload>`. Payload is either a
// LiteralPattern or a BindingPattern (identifier capture).
type TagPattern struct {
	Pos     token.Position
	Name    string
	Payload Pattern
}

func (p TagPattern) Position() token.Position { return p.Pos }

// BindingPattern is a bare identifier: always matches, binds the
// scrutinee (or a tag payload) to Name.
type BindingPattern struct {
	Pos  token.Position
	Name string
}

func (p BindingPattern) Position() token.Position { return p.Pos }

// WildcardPattern is `_`: always matches, never binds.
type WildcardPattern struct {
	Pos token.Position
}

func (p WildcardPattern) Position() token.Position { return p.Pos }

type Arm struct {
	Pattern Pattern
	Guard   Expr // nil if absent
	Body    Expr
}

type Is struct {
	Base
	Scrutinee Expr
	Arms      []Arm
}

func (n *Is) Accept(v Visitor) interface{} { return v.VisitIs(n) }

// Block is a sequence of `let` bindings followed by a final
// expression, used for lambda/function bodies and the top-level
// program (the supplemented "program is a sequence of bindings"
// feature).
type Block struct {
	Base
	Lets  []*Let
	Final Expr
}

func (n *Block) Accept(v Visitor) interface{} { return v.VisitBlock(n) }
