// Package compiler walks delta's AST and emits the bytecode program
// laid out by the bytecode package: a function signature table, the
// main chunk, and one chunk per let-bound lambda (at any nesting depth).
package compiler

import (
	"github.com/anissen/delta/internal/ast"
	"github.com/anissen/delta/internal/bytecode"
	"github.com/anissen/delta/internal/deltaerr"
	"github.com/anissen/delta/internal/token"
)

type funcInfo struct {
	index      int
	paramCount int
	lambda     *ast.Lambda
}

type Compiler struct {
	functions map[string]*funcInfo
	order     []string
}

// Compile produces the final program bytes for a parsed program block.
func Compile(prog *ast.Block) ([]byte, error) {
	c := &Compiler{functions: map[string]*funcInfo{}}
	var result []byte
	var cerr *deltaerr.Error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(*deltaerr.Error); ok {
					cerr = e
					return
				}
				panic(r)
			}
		}()
		result = c.compileProgram(prog)
	}()
	if cerr != nil {
		return nil, cerr
	}
	return result, nil
}

func (c *Compiler) fail(pos token.Position, format string, args ...interface{}) {
	panic(deltaerr.NewCompile(pos, format, args...))
}

// compileProgram pre-scans every lambda-valued let reachable in the
// program, not just top-level ones, since a lambda bound by a let
// anywhere becomes a named function reachable only through that
// binding. This lets forward and mutual references resolve, then
// compiles every function body and finally the main chunk.
func (c *Compiler) compileProgram(prog *ast.Block) []byte {
	c.collectFunctions(prog)

	var funcs []bytecode.Function
	for _, name := range c.order {
		fi := c.functions[name]
		fs := newFuncScope()
		for _, p := range fi.lambda.Params {
			fs.declare(p)
		}
		chunk := bytecode.NewChunk()
		fc := &funcCompiler{c: c, chunk: chunk, scope: fs}
		body, ok := fi.lambda.Body.(*ast.Block)
		if !ok {
			c.fail(fi.lambda.Pos, "function %q has a non-block body", name)
		}
		fc.compileBlock(body)
		chunk.WriteOp(bytecode.OpRet)
		funcs = append(funcs, bytecode.Function{
			Name:       name,
			ParamCount: byte(fi.paramCount),
			LocalCount: byte(fs.count()),
			Chunk:      chunk,
		})
	}

	mainScope := newFuncScope()
	mainChunk := bytecode.NewChunk()
	mainFC := &funcCompiler{c: c, chunk: mainChunk, scope: mainScope}
	mainFC.compileBlock(prog)
	mainChunk.WriteOp(bytecode.OpRet)

	return bytecode.Assemble(byte(mainScope.count()), mainChunk, funcs)
}

// collectFunctions walks every let-binding reachable from block,
// including inside nested blocks (function bodies, is-arm bodies),
// registering each lambda-valued one as a named function. Functions
// share one flat, whole-program namespace: this core has no closures,
// so a nested function body can never need to see an outer local
// anyway, and duplicate names are rejected regardless of nesting depth.
func (c *Compiler) collectFunctions(block *ast.Block) {
	for _, let := range block.Lets {
		if lam, ok := let.Value.(*ast.Lambda); ok {
			if _, dup := c.functions[let.Name]; dup {
				c.fail(let.Pos, "duplicate function binding %q", let.Name)
			}
			fi := &funcInfo{index: len(c.order), paramCount: len(lam.Params), lambda: lam}
			c.functions[let.Name] = fi
			c.order = append(c.order, let.Name)
			if body, ok := lam.Body.(*ast.Block); ok {
				c.collectFunctions(body)
			}
			continue
		}
		c.collectExprFunctions(let.Value)
	}
	c.collectExprFunctions(block.Final)
}

// collectExprFunctions recurses into every expression shape that can
// contain a nested block (an is-arm body) or another lambda-valued let.
// A lambda-valued let is only reachable through a block's Lets, already
// handled by collectFunctions, so this only needs to find nested blocks.
func (c *Compiler) collectExprFunctions(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Block:
		c.collectFunctions(n)
	case *ast.Is:
		c.collectExprFunctions(n.Scrutinee)
		for _, arm := range n.Arms {
			if arm.Guard != nil {
				c.collectExprFunctions(arm.Guard)
			}
			c.collectExprFunctions(arm.Body)
		}
	case *ast.Binary:
		c.collectExprFunctions(n.Left)
		c.collectExprFunctions(n.Right)
	case *ast.Unary:
		c.collectExprFunctions(n.Operand)
	case *ast.Pipeline:
		c.collectExprFunctions(n.Left)
		c.collectExprFunctions(n.Call)
	case *ast.Call:
		for _, a := range n.Args {
			c.collectExprFunctions(a)
		}
	case *ast.Interpolation:
		for _, ex := range n.Exprs {
			c.collectExprFunctions(ex)
		}
	case *ast.TagExpr:
		c.collectExprFunctions(n.Payload)
	case *ast.ListExpr:
		for _, el := range n.Elements {
			c.collectExprFunctions(el)
		}
	case *ast.LogExpr:
		c.collectExprFunctions(n.Value)
	}
}

// funcScope tracks local slot assignment within one function (or
// main). Slots are assigned in declaration order and, for is-arm
// bindings, reused across arms via rebind rather than growing forever
// (see funcCompiler.VisitIs).
type funcScope struct {
	slots map[string]int
	next  int
}

func newFuncScope() *funcScope {
	return &funcScope{slots: map[string]int{}}
}

func (s *funcScope) declare(name string) int {
	idx := s.next
	s.next++
	s.slots[name] = idx
	return idx
}

func (s *funcScope) lookup(name string) (int, bool) {
	idx, ok := s.slots[name]
	return idx, ok
}

func (s *funcScope) count() int { return s.next }

// bind sets name to an explicit slot without advancing next and
// reports the slot it replaced. The is-expression lowering does not
// call it; it assigns its shared binding slot via funcCompiler.rebind.
func (s *funcScope) bind(name string, slot int) (prevSlot int, hadPrev bool) {
	prevSlot, hadPrev = s.slots[name]
	s.slots[name] = slot
	return
}

func (s *funcScope) restore(name string, prevSlot int, hadPrev bool) {
	if hadPrev {
		s.slots[name] = prevSlot
	} else {
		delete(s.slots, name)
	}
}

// allocSlot reserves a fresh slot not tied to any name yet (used for
// is-expression scrutinee/bind temporaries).
func (s *funcScope) allocSlot() int {
	idx := s.next
	s.next++
	return idx
}
