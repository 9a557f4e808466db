// Package ast defines the abstract syntax tree for lume.
//
// Expression and statement nodes form closed tagged unions: the parser is
// the only producer and every consumer (resolver, evaluator, printers)
// dispatches with an exhaustive type switch. Nodes are pointers, so node
// identity is stable and can key the resolver's binding-distance table.
package ast

import (
	"lume-lang/internal/span"
	"lume-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// LiteralExpr represents a literal value: a float64, string, bool, or nil.
type LiteralExpr struct {
	ExprBase
	Value any
}

// GroupingExpr represents a parenthesized expression: ( expr ).
type GroupingExpr struct {
	ExprBase
	Inner Expr
}

// UnaryExpr represents a unary operation: !x, -x.
type UnaryExpr struct {
	ExprBase
	Op      token.Token
	Operand Expr
}

// BinaryExpr represents a binary operation: a + b, x == y.
type BinaryExpr struct {
	ExprBase
	Op    token.Token
	Left  Expr
	Right Expr
}

// LogicalExpr represents a short-circuit operation: a and b, a or b.
// Kept separate from BinaryExpr because its operands are evaluated
// conditionally and the result is one of the operand values.
type LogicalExpr struct {
	ExprBase
	Op    token.Token
	Left  Expr
	Right Expr
}

// VariableExpr represents a variable reference.
type VariableExpr struct {
	ExprBase
	Name token.Token
}

// AssignExpr represents an assignment: name = value. Right-associative;
// only a bare variable is a legal target.
type AssignExpr struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// CallExpr represents a function call: f(a, b). Paren is the closing
// parenthesis, kept for runtime error positions.
type CallExpr struct {
	ExprBase
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// FuncExpr represents an anonymous function literal: fun (params) { body }.
type FuncExpr struct {
	ExprBase
	Params []token.Token
	Body   []Stmt
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt represents: print expr ;
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarDecl represents a variable declaration: var name ( = expr )? ;
type VarDecl struct {
	StmtBase
	Name token.Token
	Init Expr // may be nil
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents an if statement; the else branch may be nil. A dangling
// else binds to the nearest unmatched if.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

// WhileStmt represents a while loop. for loops are desugared to this by
// the parser.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// BreakStmt represents a break statement. Keyword is kept for resolver
// error positions.
type BreakStmt struct {
	StmtBase
	Keyword token.Token
}

// ReturnStmt represents a return statement; Value may be nil.
type ReturnStmt struct {
	StmtBase
	Keyword token.Token
	Value   Expr
}

// FuncDecl represents a function declaration: fun name(params) { body }.
type FuncDecl struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}
