// Package resolver implements the static scope analysis pass for lume.
//
// The resolver walks the AST once between parsing and evaluation. For every
// variable reference or assignment that binds to a local, it records how many
// environment frames separate the use from the declaration; the evaluator
// later walks exactly that many frames instead of searching by name. A name
// with no recorded distance is treated as global at evaluation time.
//
// Scopes are pushed only where the evaluator pushes an environment (blocks
// and function bodies), so recorded distances line up one-to-one with the
// runtime environment chain. Loop and function nesting is tracked separately
// for the break and return legality checks.
package resolver

import (
	"lume-lang/internal/ast"
	"lume-lang/internal/diag"
	"lume-lang/internal/token"
)

// Locals maps a variable or assignment expression to its binding distance:
// the number of enclosing environments between the use and the declaring
// scope. Keys are node pointers, so identity survives shared subtrees.
type Locals map[ast.Expr]int

// bindState tracks the visibility of a name inside its declaring scope.
type bindState int

const (
	declared bindState = iota // name reserved, initializer not yet resolved
	defined                   // name fully usable
)

// ctxKind marks what kind of construct a context stack entry belongs to.
// Function entries are opaque to break: a break inside a function nested in
// a loop does not see the outer loop.
type ctxKind int

const (
	ctxLoop ctxKind = iota
	ctxFunction
)

// Resolver performs the scope analysis pass.
type Resolver struct {
	scopes []map[string]bindState
	ctx    []ctxKind
	locals Locals
	diags  []diag.Diagnostic
}

// New creates a resolver with an empty global scope context.
func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve analyzes the program and returns the binding distances and any
// scope violations. Violations accumulate across the whole pass so one run
// reports every problem found.
func (r *Resolver) Resolve(stmts []ast.Stmt) (Locals, []diag.Diagnostic) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
	return r.locals, r.diags
}

// ---- scope helpers ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bindState))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare reserves a name in the current scope without making it usable.
// In the global scope (empty stack) this is a no-op: globals may redeclare.
func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name.Lexeme]; exists {
		r.error("E3001", name, "Variable '%s' already declared in this scope.", name.Lexeme)
		return
	}
	scope[name.Lexeme] = declared
}

// define marks a previously declared name as usable.
func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = defined
}

// resolveLocal walks the scope stack from innermost to outermost and records
// the binding distance of the first scope holding the name. Names found in
// no scope get no entry and fall through to the global frame at runtime.
func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, exists := r.scopes[i][name.Lexeme]; exists {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) error(code string, name token.Token, format string, args ...any) {
	r.diags = append(r.diags, diag.Errorf(code, name.Span, format, args...))
}

// inLoop reports whether the nearest enclosing loop is reachable without
// crossing a function boundary.
func (r *Resolver) inLoop() bool {
	for i := len(r.ctx) - 1; i >= 0; i-- {
		switch r.ctx[i] {
		case ctxLoop:
			return true
		case ctxFunction:
			return false
		}
	}
	return false
}

func (r *Resolver) inFunction() bool {
	for i := len(r.ctx) - 1; i >= 0; i-- {
		if r.ctx[i] == ctxFunction {
			return true
		}
	}
	return false
}

// ---- statement resolution ----

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.VarDecl:
		// Declare before resolving the initializer so that var a = a;
		// observes a in the declared-not-defined state.
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)

	case *ast.BlockStmt:
		r.beginScope()
		for _, inner := range s.Stmts {
			r.resolveStmt(inner)
		}
		r.endScope()

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.ctx = append(r.ctx, ctxLoop)
		r.resolveStmt(s.Body)
		r.ctx = r.ctx[:len(r.ctx)-1]

	case *ast.BreakStmt:
		if !r.inLoop() {
			r.error("E3003", s.Keyword, "Can't break outside of a loop.")
		}

	case *ast.ReturnStmt:
		if !r.inFunction() {
			r.error("E3004", s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}

	case *ast.FuncDecl:
		// The function's own name is defined eagerly so the body can
		// recurse into it.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s.Params, s.Body)
	}
}

// resolveFunction resolves a parameter list and body in a fresh scope. The
// single scope matches the single environment the evaluator creates per
// invocation.
func (r *Resolver) resolveFunction(params []token.Token, body []ast.Stmt) {
	r.ctx = append(r.ctx, ctxFunction)
	r.beginScope()

	for _, param := range params {
		r.declare(param)
		r.define(param)
	}
	for _, stmt := range body {
		r.resolveStmt(stmt)
	}

	r.endScope()
	r.ctx = r.ctx[:len(r.ctx)-1]
}

// ---- expression resolution ----

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		// nothing to resolve

	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			scope := r.scopes[len(r.scopes)-1]
			if state, exists := scope[e.Name.Lexeme]; exists && state == declared {
				r.error("E3002", e.Name, "Can't read local variable '%s' in its own initializer.", e.Name.Lexeme)
			}
		}
		r.resolveLocal(e, e.Name)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.FuncExpr:
		r.resolveFunction(e.Params, e.Body)
	}
}
