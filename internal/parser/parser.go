// Package parser builds delta's AST from a token stream with a
// recursive-descent, Pratt-precedence parser: an explicit
// precedence-table walk that climbs from low-precedence binary
// operators down to primaries.
package parser

import (
	"strconv"

	"github.com/anissen/delta/internal/ast"
	"github.com/anissen/delta/internal/deltaerr"
	"github.com/anissen/delta/internal/token"
)

func parseInt(lexeme string) int64 {
	n, _ := strconv.ParseInt(lexeme, 10, 64)
	return n
}

func parseFloat(lexeme string) float64 {
	f, _ := strconv.ParseFloat(lexeme, 64)
	return f
}

type Parser struct {
	tokens []token.Token
	pos    int
	file   string
	source string
}

func New(tokens []token.Token, source, file string) *Parser {
	return &Parser{tokens: tokens, file: file, source: source}
}

// binaryPrecedence is the Pratt table for levels 5-8: equality,
// comparisons, additive, multiplicative. Pipeline, or, and, not, and
// unary minus have their own explicit layers because their semantics
// (right-hand call shape, non-short-circuit strictness, prefix form)
// don't fit a flat binary table.
var binaryPrecedence = map[token.Kind]int{
	token.EQ:      5,
	token.NEQ:     5,
	token.LT:      6,
	token.GT:      6,
	token.LE:      6,
	token.GE:      6,
	token.FLT:     6,
	token.FGT:     6,
	token.FLE:     6,
	token.FGE:     6,
	token.PLUS:    7,
	token.MINUS:   7,
	token.STAR:    8,
	token.SLASH:   8,
	token.PERCENT: 8,
}

func (p *Parser) Parse() (*ast.Block, error) {
	var result *ast.Block
	var perr *deltaerr.Error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(*deltaerr.Error); ok {
					perr = e
					return
				}
				panic(r)
			}
		}()
		p.skipNewlines()
		result = p.block()
		p.skipNewlines()
		p.expect(token.EOF)
	}()
	if perr != nil {
		return nil, perr
	}
	return result, nil
}

// block parses zero or more `let` bindings followed by a final
// expression, stopping wherever the caller's DEDENT/EOF falls.
func (p *Parser) block() *ast.Block {
	pos := p.peek().Pos
	var lets []*ast.Let
	for p.isLetStart() {
		lets = append(lets, p.letBinding())
		p.skipNewlines()
	}
	final := p.expression()
	p.skipNewlines()
	return &ast.Block{Base: ast.Base{Pos: pos}, Lets: lets, Final: final}
}

func (p *Parser) isLetStart() bool {
	return p.check(token.IDENT) && p.checkAt(1, token.EQUAL)
}

func (p *Parser) letBinding() *ast.Let {
	name := p.expect(token.IDENT)
	p.expect(token.EQUAL)
	value := p.expression()
	return &ast.Let{Base: ast.Base{Pos: name.Pos}, Name: name.Lexeme, Value: value}
}

// --- expression, loosest to tightest ---

func (p *Parser) expression() ast.Expr {
	return p.pipeline()
}

func (p *Parser) pipeline() ast.Expr {
	left := p.or()
	for p.check(token.PIPE) {
		pipePos := p.advance().Pos
		call := p.pipelineCall()
		left = &ast.Pipeline{Base: ast.Base{Pos: pipePos}, Left: left, Call: call}
	}
	return left
}

// pipelineCall parses the right-hand side of a `|`: a bare function
// name followed by zero or more argument atoms.
func (p *Parser) pipelineCall() *ast.Call {
	name := p.expect(token.IDENT)
	call := &ast.Call{Base: ast.Base{Pos: name.Pos}, Callee: name.Lexeme}
	for p.atArgStart() {
		call.Args = append(call.Args, p.atom())
	}
	return call
}

func (p *Parser) or() ast.Expr {
	left := p.and()
	for p.check(token.OR) {
		opPos := p.advance().Pos
		right := p.and()
		left = &ast.Binary{Base: ast.Base{Pos: opPos}, Op: token.OR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) and() ast.Expr {
	left := p.not()
	for p.check(token.AND) {
		opPos := p.advance().Pos
		right := p.not()
		left = &ast.Binary{Base: ast.Base{Pos: opPos}, Op: token.AND, Left: left, Right: right}
	}
	return left
}

func (p *Parser) not() ast.Expr {
	if p.check(token.NOT) {
		opPos := p.advance().Pos
		operand := p.not()
		return &ast.Unary{Base: ast.Base{Pos: opPos}, Op: token.NOT, Operand: operand}
	}
	return p.binary(5)
}

// binary implements Pratt climbing over binaryPrecedence for levels
// 5 through 8.
func (p *Parser) binary(minPrec int) ast.Expr {
	left := p.unaryMinus()
	for {
		prec, ok := binaryPrecedence[p.peek().Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		right := p.binaryRHS(prec)
		left = &ast.Binary{Base: ast.Base{Pos: op.Pos}, Op: op.Kind, Left: left, Right: right}
	}
}

func (p *Parser) binaryRHS(prec int) ast.Expr {
	// Left-associative: parse the next operand at one precedence level
	// tighter so same-precedence operators don't recurse into the RHS.
	left := p.unaryMinus()
	for {
		nextPrec, ok := binaryPrecedence[p.peek().Kind]
		if !ok || nextPrec <= prec {
			return left
		}
		op := p.advance()
		right := p.binaryRHS(nextPrec)
		left = &ast.Binary{Base: ast.Base{Pos: op.Pos}, Op: op.Kind, Left: left, Right: right}
	}
}

func (p *Parser) unaryMinus() ast.Expr {
	if p.check(token.MINUS) {
		opPos := p.advance().Pos
		operand := p.unaryMinus()
		return &ast.Unary{Base: ast.Base{Pos: opPos}, Op: token.MINUS, Operand: operand}
	}
	return p.application()
}

// application parses an identifier call-head with greedy argument
// atoms, or a bare atom, then allows a trailing `is` to attach (the
// scrutinee is the expression just parsed).
func (p *Parser) application() ast.Expr {
	var e ast.Expr
	switch {
	case p.check(token.LOG):
		logPos := p.advance().Pos
		e = &ast.LogExpr{Base: ast.Base{Pos: logPos}, Value: p.atom()}
	case p.check(token.IDENT) && p.atArgStartAt(1):
		name := p.advance()
		call := &ast.Call{Base: ast.Base{Pos: name.Pos}, Callee: name.Lexeme}
		for p.atArgStart() {
			call.Args = append(call.Args, p.atom())
		}
		e = call
	default:
		e = p.atom()
	}
	if p.check(token.IS) {
		pos := p.peek().Pos
		e = p.isExpression(e, pos)
	}
	return e
}

func (p *Parser) atArgStart() bool { return p.atArgStartAt(0) }

func (p *Parser) atArgStartAt(offset int) bool {
	switch p.peekAt(offset).Kind {
	case token.INTEGER, token.FLOAT, token.STRING, token.TRUE, token.FALSE,
		token.TAG, token.IDENT, token.LPAREN, token.LBRACKET, token.UNDERSCORE:
		return true
	default:
		return false
	}
}

// atom parses a single primary expression without gathering further
// call arguments (used for call arguments and nested subexpressions).
func (p *Parser) atom() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.INTEGER:
		p.advance()
		return &ast.Integer{Base: ast.Base{Pos: tok.Pos}, Value: parseInt(tok.Lexeme)}
	case token.FLOAT:
		p.advance()
		return &ast.Float{Base: ast.Base{Pos: tok.Pos}, Value: parseFloat(tok.Lexeme)}
	case token.TRUE:
		p.advance()
		return &ast.Boolean{Base: ast.Base{Pos: tok.Pos}, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.Boolean{Base: ast.Base{Pos: tok.Pos}, Value: false}
	case token.STRING:
		return p.stringOrInterpolation()
	case token.TAG:
		return p.tagExpr()
	case token.IDENT:
		p.advance()
		return &ast.Identifier{Base: ast.Base{Pos: tok.Pos}, Name: tok.Lexeme}
	case token.UNDERSCORE:
		p.advance()
		return &ast.Identifier{Base: ast.Base{Pos: tok.Pos}, Name: "_"}
	case token.LPAREN:
		p.advance()
		inner := p.expression()
		p.expect(token.RPAREN)
		return inner
	case token.LBRACKET:
		return p.listLiteral()
	case token.BACKSLASH:
		return p.lambda()
	}
	p.fail(tok.Pos, "unexpected token %s", tok.Kind)
	return nil
}

func (p *Parser) listLiteral() ast.Expr {
	start := p.expect(token.LBRACKET)
	list := &ast.ListExpr{Base: ast.Base{Pos: start.Pos}}
	if !p.check(token.RBRACKET) {
		list.Elements = append(list.Elements, p.expression())
		for p.check(token.COMMA) {
			p.advance()
			list.Elements = append(list.Elements, p.expression())
		}
	}
	p.expect(token.RBRACKET)
	return list
}

func (p *Parser) stringOrInterpolation() ast.Expr {
	first := p.advance() // STRING
	if !p.check(token.INTERP_BEGIN) {
		return &ast.StringLit{Base: ast.Base{Pos: first.Pos}, Value: first.Lexeme}
	}
	interp := &ast.Interpolation{Base: ast.Base{Pos: first.Pos}}
	interp.Parts = append(interp.Parts, first.Lexeme)
	for p.check(token.INTERP_BEGIN) {
		p.advance()
		expr := p.expression()
		p.expect(token.INTERP_END)
		interp.Exprs = append(interp.Exprs, expr)
		seg := p.expect(token.STRING)
		interp.Parts = append(interp.Parts, seg.Lexeme)
	}
	return interp
}

func (p *Parser) tagExpr() ast.Expr {
	tag := p.advance() // TAG
	if p.atArgStart() {
		payload := p.atom()
		return &ast.TagExpr{Base: ast.Base{Pos: tag.Pos}, Name: tag.Lexeme, Payload: payload}
	}
	return &ast.SimpleTagExpr{Base: ast.Base{Pos: tag.Pos}, Name: tag.Lexeme}
}

func (p *Parser) lambda() ast.Expr {
	start := p.expect(token.BACKSLASH)
	var params []string
	for p.check(token.IDENT) {
		params = append(params, p.advance().Lexeme)
	}
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	body := p.block()
	p.expect(token.DEDENT)
	return &ast.Lambda{Base: ast.Base{Pos: start.Pos}, Params: params, Body: body}
}

// isExpression parses `<scrutinee> is NEWLINE INDENT (arm)+ DEDENT`.
func (p *Parser) isExpression(scrutinee ast.Expr, pos token.Position) ast.Expr {
	p.advance() // IS
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	var arms []ast.Arm
	for !p.check(token.DEDENT) {
		arms = append(arms, p.arm())
	}
	p.expect(token.DEDENT)
	return &ast.Is{Base: ast.Base{Pos: pos}, Scrutinee: scrutinee, Arms: arms}
}

func (p *Parser) arm() ast.Arm {
	pat := p.pattern()
	var guard ast.Expr
	if p.check(token.IF) {
		p.advance()
		guard = p.expression()
	}
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	body := p.block()
	p.expect(token.DEDENT)
	return ast.Arm{Pattern: pat, Guard: guard, Body: body}
}

func (p *Parser) pattern() ast.Pattern {
	tok := p.peek()
	switch tok.Kind {
	case token.UNDERSCORE:
		p.advance()
		return ast.WildcardPattern{Pos: tok.Pos}
	case token.INTEGER:
		p.advance()
		return ast.LiteralPattern{Pos: tok.Pos, Value: &ast.Integer{Base: ast.Base{Pos: tok.Pos}, Value: parseInt(tok.Lexeme)}}
	case token.FLOAT:
		p.advance()
		return ast.LiteralPattern{Pos: tok.Pos, Value: &ast.Float{Base: ast.Base{Pos: tok.Pos}, Value: parseFloat(tok.Lexeme)}}
	case token.TRUE:
		p.advance()
		return ast.LiteralPattern{Pos: tok.Pos, Value: &ast.Boolean{Base: ast.Base{Pos: tok.Pos}, Value: true}}
	case token.FALSE:
		p.advance()
		return ast.LiteralPattern{Pos: tok.Pos, Value: &ast.Boolean{Base: ast.Base{Pos: tok.Pos}, Value: false}}
	case token.STRING:
		lit := p.stringOrInterpolation()
		return ast.LiteralPattern{Pos: tok.Pos, Value: lit}
	case token.TAG:
		p.advance()
		if p.check(token.IDENT) {
			id := p.advance()
			return ast.TagPattern{Pos: tok.Pos, Name: tok.Lexeme, Payload: ast.BindingPattern{Pos: id.Pos, Name: id.Lexeme}}
		}
		if p.atArgStart() {
			inner := p.pattern()
			return ast.TagPattern{Pos: tok.Pos, Name: tok.Lexeme, Payload: inner}
		}
		return ast.SimpleTagPattern{Pos: tok.Pos, Name: tok.Lexeme}
	case token.IDENT:
		p.advance()
		return ast.BindingPattern{Pos: tok.Pos, Name: tok.Lexeme}
	}
	p.fail(tok.Pos, "invalid pattern starting with %s", tok.Kind)
	return nil
}

// --- token stream plumbing ---

func (p *Parser) peek() token.Token { return p.peekAt(0) }
func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) check(k token.Kind) bool            { return p.peek().Kind == k }
func (p *Parser) checkAt(off int, k token.Kind) bool { return p.peekAt(off).Kind == k }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.check(k) {
		p.fail(p.peek().Pos, "expected %s, found %s", k, p.peek().Kind)
	}
	return p.advance()
}

func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) fail(pos token.Position, format string, args ...interface{}) {
	panic(deltaerr.NewParse(pos, format, args...))
}
