package runtime

import (
	"fmt"
	"io"
	"math"

	"lume-lang/internal/ast"
	"lume-lang/internal/resolver"
	"lume-lang/internal/span"
	"lume-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
// Signals are disjoint from runtime errors: a pending return or break is
// never something error-handling code can swallow.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
	SigBreak             // break from loop
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// Error represents an error during evaluation. Unlike the static stages,
// evaluation stops at the first one.
type Error struct {
	Message string
	Span    span.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func runtimeErr(s span.Span, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Span: s}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. One interpreter may run many
// programs against the same global frame, which is how the REPL keeps
// definitions alive across lines.
type Interpreter struct {
	global *Environment
	env    *Environment
	locals resolver.Locals
	output io.Writer
	repl   bool
}

// NewInterpreter creates an interpreter with built-in functions registered.
// In REPL mode, every bare expression statement prints its result.
func NewInterpreter(output io.Writer, repl bool) *Interpreter {
	global := NewEnvironment(nil)
	RegisterBuiltins(global)
	return &Interpreter{
		global: global,
		env:    global,
		locals: make(resolver.Locals),
		output: output,
		repl:   repl,
	}
}

// Interpret executes a resolved program. The locals table is merged into
// the interpreter's own, so binding distances from earlier REPL lines stay
// valid when closures from those lines run later.
func (i *Interpreter) Interpret(stmts []ast.Stmt, locals resolver.Locals) error {
	for expr, dist := range locals {
		i.locals[expr] = dist
	}

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return err
		}
		// The resolver rejects these statically; the guard covers callers
		// that skip the resolve pass.
		if result.Signal == SigReturn {
			return runtimeErr(stmt.GetSpan(), "return outside of function")
		}
		if result.Signal == SigBreak {
			return runtimeErr(stmt.GetSpan(), "break outside of loop")
		}
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		if i.repl {
			fmt.Fprintln(i.output, val.String())
		}
		return resultNone, nil

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		fmt.Fprintln(i.output, val.String())
		return resultNone, nil

	case *ast.VarDecl:
		return i.execVarDecl(s)

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.FuncDecl:
		fn := &FuncVal{
			Name:    s.Name.Lexeme,
			Params:  s.Params,
			Body:    s.Body,
			Closure: i.env,
		}
		if err := i.env.Define(s.Name.Lexeme, fn); err != nil {
			return resultNone, runtimeErr(s.Name.Span, "%s", err)
		}
		return resultNone, nil

	default:
		return resultNone, runtimeErr(stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVarDecl(s *ast.VarDecl) (ExecResult, error) {
	var val Value = NilVal{}
	if s.Init != nil {
		v, err := i.evalExpr(s.Init)
		if err != nil {
			return resultNone, err
		}
		val = v
	}
	if err := i.env.Define(s.Name.Lexeme, val); err != nil {
		return resultNone, runtimeErr(s.Name.Span, "%s", err)
	}
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return i.execStmt(s.Then)
	}
	if s.Else != nil {
		return i.execStmt(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break // caught here, never propagates past the loop
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e)
	case *ast.GroupingExpr:
		return i.evalExpr(e.Inner)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.LogicalExpr:
		return i.evalLogical(e)
	case *ast.VariableExpr:
		return i.lookupVariable(e.Name, e)
	case *ast.AssignExpr:
		return i.evalAssign(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	case *ast.FuncExpr:
		return &FuncVal{
			Name:    "<anonymous>",
			Params:  e.Params,
			Body:    e.Body,
			Closure: i.env,
		}, nil
	default:
		return nil, runtimeErr(expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

func literalValue(e *ast.LiteralExpr) (Value, error) {
	switch v := e.Value.(type) {
	case nil:
		return NilVal{}, nil
	case float64:
		return NumberVal(v), nil
	case string:
		return StringVal(v), nil
	case bool:
		return BoolVal(v), nil
	default:
		return nil, runtimeErr(e.GetSpan(), "unhandled literal type: %T", e.Value)
	}
}

// lookupVariable reads a variable through its resolved binding distance, or
// from the global frame when the resolver recorded none.
func (i *Interpreter) lookupVariable(name token.Token, expr ast.Expr) (Value, error) {
	if dist, ok := i.locals[expr]; ok {
		if val, found := i.env.GetAt(dist, name.Lexeme); found {
			return val, nil
		}
	} else if val, found := i.global.Get(name.Lexeme); found {
		return val, nil
	}
	return nil, runtimeErr(name.Span, "Undefined variable '%s'.", name.Lexeme)
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}

	if dist, ok := i.locals[e]; ok {
		if i.env.AssignAt(dist, e.Name.Lexeme, val) {
			return val, nil
		}
	} else if i.global.Assign(e.Name.Lexeme, val) {
		return val, nil
	}
	return nil, runtimeErr(e.Name.Span, "Undefined variable '%s'.", e.Name.Lexeme)
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		num, ok := operand.(NumberVal)
		if !ok {
			return nil, runtimeErr(e.GetSpan(), "Operand must be a number.")
		}
		return NumberVal(-float64(num)), nil
	default:
		return nil, runtimeErr(e.GetSpan(), "unknown unary operator: %s", e.Op.Lexeme)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	// Equality works for all types, without coercion.
	switch e.Op.Kind {
	case token.EQ:
		return BoolVal(valuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!valuesEqual(left, right)), nil
	}

	// + concatenates when either side is a string, converting the other.
	if e.Op.Kind == token.PLUS {
		_, leftIsStr := left.(StringVal)
		_, rightIsStr := right.(StringVal)
		if leftIsStr || rightIsStr {
			return StringVal(left.String() + right.String()), nil
		}
		lNum, lOk := left.(NumberVal)
		rNum, rOk := right.(NumberVal)
		if lOk && rOk {
			return NumberVal(float64(lNum) + float64(rNum)), nil
		}
		return nil, runtimeErr(e.GetSpan(), "Operands must be numbers or strings.")
	}

	lNum, lOk := left.(NumberVal)
	rNum, rOk := right.(NumberVal)
	if !lOk || !rOk {
		return nil, runtimeErr(e.GetSpan(), "Operands must be numbers.")
	}
	lf, rf := float64(lNum), float64(rNum)

	switch e.Op.Kind {
	case token.MINUS:
		return NumberVal(lf - rf), nil
	case token.STAR:
		return NumberVal(lf * rf), nil
	case token.SLASH:
		if rf == 0 {
			return nil, runtimeErr(e.GetSpan(), "Division by zero.")
		}
		return NumberVal(lf / rf), nil
	case token.PERCENT:
		if rf == 0 {
			return nil, runtimeErr(e.GetSpan(), "Division by zero.")
		}
		return NumberVal(math.Mod(lf, rf)), nil
	case token.LT:
		return BoolVal(lf < rf), nil
	case token.LTE:
		return BoolVal(lf <= rf), nil
	case token.GT:
		return BoolVal(lf > rf), nil
	case token.GTE:
		return BoolVal(lf >= rf), nil
	default:
		return nil, runtimeErr(e.GetSpan(), "unknown binary operator: %s", e.Op.Lexeme)
	}
}

// evalLogical short-circuits and returns one of the operand values, not a
// coerced boolean.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
		return i.evalExpr(e.Right)
	}
	// and
	if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunc(fn, args, e.Paren.Span)
	case *BuiltinVal:
		if len(args) != fn.Arity {
			return nil, runtimeErr(e.Paren.Span, "Expected %d arguments but got %d.", fn.Arity, len(args))
		}
		result, err := fn.Fn(args)
		if err != nil {
			return nil, runtimeErr(e.Paren.Span, "%s", err)
		}
		return result, nil
	default:
		return nil, runtimeErr(e.Paren.Span, "Can only call functions and classes.")
	}
}

// callFunc invokes a user-defined function. The new frame's parent is the
// function's closure, not the caller's environment.
func (i *Interpreter) callFunc(fn *FuncVal, args []Value, s span.Span) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, runtimeErr(s, "Expected %d arguments but got %d.", len(fn.Params), len(args))
	}

	funcEnv := NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		if err := funcEnv.Define(param.Lexeme, args[idx]); err != nil {
			return nil, runtimeErr(param.Span, "%s", err)
		}
	}

	result, err := i.execBlock(fn.Body, funcEnv)
	if err != nil {
		return nil, err
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}
