// Package parser implements the syntax analysis for lume.
// It uses Pratt parsing for expressions and recursive descent for
// statements and declarations.
package parser

import (
	"fmt"

	"lume-lang/internal/ast"
	"lume-lang/internal/diag"
	"lume-lang/internal/span"
	"lume-lang/internal/token"
)

// maxParams bounds both parameter and argument lists.
const maxParams = 255

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpAssign     = 5  // = (right-associative)
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // ! -
	bpCall       = 80 // ()
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.ASSIGN:
		return bpAssign
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN:
		return bpCall
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice. The slice must be terminated
// by an EOF token, as produced by lexer.Tokenize.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse parses the whole program and returns the statement list and
// diagnostics. A statement that fails to parse is dropped and the parser
// resynchronizes at the next statement boundary, so one error does not
// cascade into the rest of the file.
func (p *Parser) Parse() ([]ast.Stmt, []diag.Diagnostic) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.parseDecl(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind, what string) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected %s %s", what, p.describe(tok)))
	return tok, false
}

// describe renders a token for an error message. EOF gets special wording
// so messages read "at end" rather than quoting an empty lexeme.
func (p *Parser) describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "at end"
	}
	return fmt.Sprintf("at '%s'", tok.Lexeme)
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

func (p *Parser) error(code string, s span.Span, msg string) {
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards the offending token, then skips until a likely
// statement boundary: just past a semicolon, or right before a keyword that
// starts a statement. Consuming first guarantees progress even when the bad
// token is itself a statement keyword.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.tokens[p.pos-1].Kind == token.SEMICOLON {
			return
		}
		if p.match(token.KW_CLASS, token.KW_FUN, token.KW_VAR, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN, token.KW_BREAK) {
			return
		}
		p.advance()
	}
}

// ============================================================
// Declaration parsing
// ============================================================

// parseDecl parses one declaration or statement, returning nil when the
// statement had to be abandoned for recovery.
func (p *Parser) parseDecl() ast.Stmt {
	switch p.peekKind() {
	case token.KW_VAR:
		return p.parseVarDecl()
	case token.KW_FUN:
		// 'fun' followed by a name declares a function; a bare 'fun' is an
		// anonymous function expression and falls through to parseStmt.
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Kind == token.IDENT {
			return p.parseFuncDecl()
		}
		return p.parseStmt()
	default:
		return p.parseStmt()
	}
}

// parseVarDecl parses: var IDENT ( = expr )? ;
func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.advance() // consume 'var'

	nameTok, ok := p.expect(token.IDENT, "variable name")
	if !ok {
		p.synchronize()
		return nil
	}

	stmt := &ast.VarDecl{Name: nameTok}
	if p.check(token.ASSIGN) {
		p.advance()
		stmt.Init = p.parseExpr(bpNone)
		if stmt.Init == nil {
			p.synchronize()
			return nil
		}
	}

	if _, ok := p.expect(token.SEMICOLON, "';' after variable declaration"); !ok {
		p.synchronize()
		return nil
	}
	stmt.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return stmt
}

// parseFuncDecl parses: fun IDENT ( params ) block
func (p *Parser) parseFuncDecl() ast.Stmt {
	start := p.advance() // consume 'fun'
	nameTok := p.advance()

	params, body, ok := p.parseFuncRest("function")
	if !ok {
		return nil
	}
	return &ast.FuncDecl{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Name:     nameTok,
		Params:   params,
		Body:     body,
	}
}

// parseFuncRest parses the parameter list and body shared by function
// declarations and anonymous function expressions.
func (p *Parser) parseFuncRest(what string) ([]token.Token, []ast.Stmt, bool) {
	if _, ok := p.expect(token.LPAREN, "'(' before "+what+" parameters"); !ok {
		p.synchronize()
		return nil, nil, false
	}

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxParams {
				p.error("E2004", p.peek().Span,
					fmt.Sprintf("can't have more than %d parameters", maxParams))
			}
			nameTok, ok := p.expect(token.IDENT, "parameter name")
			if !ok {
				p.synchronize()
				return nil, nil, false
			}
			params = append(params, nameTok)
			if !p.check(token.COMMA) {
				break
			}
			p.advance() // consume ','
		}
	}
	if _, ok := p.expect(token.RPAREN, "')' after parameters"); !ok {
		p.synchronize()
		return nil, nil, false
	}

	if !p.check(token.LBRACE) {
		tok := p.peek()
		p.error("E2001", tok.Span, fmt.Sprintf("expected '{' before %s body %s", what, p.describe(tok)))
		p.synchronize()
		return nil, nil, false
	}
	body := p.parseBlock()
	return params, body.Stmts, true
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_PRINT:
		return p.parsePrintStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_BREAK:
		return p.parseBreakStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

// parseIfStmt parses: if ( expr ) stmt ( else stmt )?
// A dangling else binds to the nearest unmatched if, which falls out of the
// recursion here for free.
func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.advance() // consume 'if'

	if _, ok := p.expect(token.LPAREN, "'(' after 'if'"); !ok {
		p.synchronize()
		return nil
	}
	cond := p.parseExpr(bpNone)
	if cond == nil {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "')' after if condition"); !ok {
		p.synchronize()
		return nil
	}

	then := p.parseStmt()
	if then == nil {
		return nil
	}

	stmt := &ast.IfStmt{Condition: cond, Then: then}
	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.Else = p.parseStmt()
		if stmt.Else == nil {
			return nil
		}
	}
	stmt.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return stmt
}

// parseWhileStmt parses: while ( expr ) stmt
func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.advance() // consume 'while'

	if _, ok := p.expect(token.LPAREN, "'(' after 'while'"); !ok {
		p.synchronize()
		return nil
	}
	cond := p.parseExpr(bpNone)
	if cond == nil {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "')' after while condition"); !ok {
		p.synchronize()
		return nil
	}

	body := p.parseStmt()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{
		StmtBase:  makeStmtBase(start.Span.Start, p.prevEnd()),
		Condition: cond,
		Body:      body,
	}
}

// parseForStmt parses: for ( init? ; cond? ; step? ) stmt
// and desugars it into while form. With an init clause the result is a
// block wrapping the declaration and the loop, so the loop variable scopes
// to the statement.
func (p *Parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'

	if _, ok := p.expect(token.LPAREN, "'(' after 'for'"); !ok {
		p.synchronize()
		return nil
	}

	// Init clause: declaration, expression statement, or empty.
	var init ast.Stmt
	switch p.peekKind() {
	case token.SEMICOLON:
		p.advance()
	case token.KW_VAR:
		init = p.parseVarDecl()
		if init == nil {
			return nil
		}
	default:
		init = p.parseExprStmt()
		if init == nil {
			return nil
		}
	}

	// Condition: defaults to true when omitted.
	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.parseExpr(bpNone)
		if cond == nil {
			p.synchronize()
			return nil
		}
	}
	semiTok, ok := p.expect(token.SEMICOLON, "';' after loop condition")
	if !ok {
		p.synchronize()
		return nil
	}
	if cond == nil {
		cond = &ast.LiteralExpr{
			ExprBase: makeExprBase(semiTok.Span.Start, semiTok.Span.End),
			Value:    true,
		}
	}

	// Step clause.
	var step ast.Expr
	if !p.check(token.RPAREN) {
		step = p.parseExpr(bpNone)
		if step == nil {
			p.synchronize()
			return nil
		}
	}
	if _, ok := p.expect(token.RPAREN, "')' after for clauses"); !ok {
		p.synchronize()
		return nil
	}

	body := p.parseStmt()
	if body == nil {
		return nil
	}

	full := span.Span{Start: start.Span.Start, End: p.prevEnd()}

	if step != nil {
		body = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: full}},
			Stmts: []ast.Stmt{
				body,
				&ast.ExprStmt{
					StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: step.GetSpan()}},
					Expr:     step,
				},
			},
		}
	}

	var loop ast.Stmt = &ast.WhileStmt{
		StmtBase:  ast.StmtBase{NodeBase: ast.NodeBase{Span: full}},
		Condition: cond,
		Body:      body,
	}

	if init != nil {
		loop = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: full}},
			Stmts:    []ast.Stmt{init, loop},
		}
	}
	return loop
}

// parsePrintStmt parses: print expr ;
func (p *Parser) parsePrintStmt() ast.Stmt {
	start := p.advance() // consume 'print'

	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("expected expression %s", p.describe(tok)))
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(token.SEMICOLON, "';' after value"); !ok {
		p.synchronize()
		return nil
	}
	return &ast.PrintStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Expr:     expr,
	}
}

// parseReturnStmt parses: return expr? ;
func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.advance() // consume 'return'

	stmt := &ast.ReturnStmt{Keyword: start}
	if !p.check(token.SEMICOLON) {
		stmt.Value = p.parseExpr(bpNone)
		if stmt.Value == nil {
			p.synchronize()
			return nil
		}
	}
	if _, ok := p.expect(token.SEMICOLON, "';' after return value"); !ok {
		p.synchronize()
		return nil
	}
	stmt.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return stmt
}

// parseBreakStmt parses: break ;
func (p *Parser) parseBreakStmt() ast.Stmt {
	start := p.advance() // consume 'break'
	if _, ok := p.expect(token.SEMICOLON, "';' after 'break'"); !ok {
		p.synchronize()
		return nil
	}
	return &ast.BreakStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Keyword:  start,
	}
}

// parseBlock parses: { decls }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.advance() // consume '{'
	block := &ast.BlockStmt{}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.parseDecl(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	p.expect(token.RBRACE, "'}' after block")
	block.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return block
}

// parseExprStmt parses: expr ;
func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("expected expression %s", p.describe(tok)))
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(token.SEMICOLON, "';' after expression"); !ok {
		p.synchronize()
		return nil
	}
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
		Expr:     expr,
	}
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			break
		}
		next := p.led(left)
		if next == nil {
			return nil
		}
		left = next
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.NUMBER, token.STRING:
		p.advance()
		return &ast.LiteralExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Literal,
		}

	case token.KW_TRUE:
		p.advance()
		return &ast.LiteralExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    true,
		}

	case token.KW_FALSE:
		p.advance()
		return &ast.LiteralExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    false,
		}

	case token.KW_NIL:
		p.advance()
		return &ast.LiteralExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    nil,
		}

	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok,
		}

	case token.LPAREN:
		p.advance() // consume '('
		inner := p.parseExpr(bpNone)
		if inner == nil {
			tok := p.peek()
			p.error("E2002", tok.Span, fmt.Sprintf("expected expression %s", p.describe(tok)))
			return nil
		}
		end, _ := p.expect(token.RPAREN, "')' after expression")
		return &ast.GroupingExpr{
			ExprBase: makeExprBase(tok.Span.Start, end.Span.End),
			Inner:    inner,
		}

	case token.BANG, token.MINUS:
		p.advance()
		operand := p.parseExpr(bpPrefix - 1)
		if operand == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected expression %s", p.describe(next)))
			return nil
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok,
			Operand:  operand,
		}

	case token.KW_FUN:
		return p.parseFuncExpr()

	default:
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.ASSIGN:
		p.advance()
		// Right-associative: a = b = c parses as a = (b = c).
		value := p.parseExpr(bpAssign - 1)
		if value == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected expression %s", p.describe(next)))
			return nil
		}
		target, ok := left.(*ast.VariableExpr)
		if !ok {
			// Recorded but non-fatal: the right-hand side stands in for the
			// whole expression so parsing can continue.
			p.error("E2003", tok.Span, "Invalid assignment target.")
			return value
		}
		return &ast.AssignExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
			Name:     target.Name,
			Value:    value,
		}

	case token.KW_AND, token.KW_OR:
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		if right == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected expression %s", p.describe(next)))
			return nil
		}
		return &ast.LogicalExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok,
			Left:     left,
			Right:    right,
		}

	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		if right == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected expression %s", p.describe(next)))
			return nil
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok,
			Left:     left,
			Right:    right,
		}

	case token.LPAREN:
		return p.parseCallExpr(left)

	default:
		return left
	}
}

// parseCallExpr parses: callee ( args )
func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	p.advance() // consume '('
	var args []ast.Expr

	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxParams {
				p.error("E2004", p.peek().Span,
					fmt.Sprintf("can't have more than %d arguments", maxParams))
			}
			arg := p.parseExpr(bpNone)
			if arg == nil {
				next := p.peek()
				p.error("E2002", next.Span, fmt.Sprintf("expected expression %s", p.describe(next)))
				return nil
			}
			args = append(args, arg)
			if !p.check(token.COMMA) {
				break
			}
			p.advance() // consume ','
		}
	}
	end, _ := p.expect(token.RPAREN, "')' after arguments")

	return &ast.CallExpr{
		ExprBase: makeExprBase(callee.GetSpan().Start, end.Span.End),
		Callee:   callee,
		Paren:    end,
		Args:     args,
	}
}

// parseFuncExpr parses an anonymous function: fun ( params ) block
func (p *Parser) parseFuncExpr() ast.Expr {
	start := p.advance() // consume 'fun'

	params, body, ok := p.parseFuncRest("anonymous function")
	if !ok {
		return nil
	}
	return &ast.FuncExpr{
		ExprBase: makeExprBase(start.Span.Start, p.prevEnd()),
		Params:   params,
		Body:     body,
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
