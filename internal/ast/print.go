package ast

import (
	"fmt"
	"strconv"
	"strings"

	"lume-lang/internal/token"
)

// Sexpr renders an expression as a compact s-expression, the form used by
// the parse debug dump and the parser tests: "1 + 2 * 3" prints as
// (+ 1 (* 2 3)).
func Sexpr(e Expr) string {
	switch n := e.(type) {
	case *LiteralExpr:
		return literalString(n.Value)
	case *GroupingExpr:
		return parens("group", Sexpr(n.Inner))
	case *UnaryExpr:
		return parens(n.Op.Lexeme, Sexpr(n.Operand))
	case *BinaryExpr:
		return parens(n.Op.Lexeme, Sexpr(n.Left), Sexpr(n.Right))
	case *LogicalExpr:
		return parens(n.Op.Lexeme, Sexpr(n.Left), Sexpr(n.Right))
	case *VariableExpr:
		return n.Name.Lexeme
	case *AssignExpr:
		return parens("=", n.Name.Lexeme, Sexpr(n.Value))
	case *CallExpr:
		parts := []string{"call", Sexpr(n.Callee)}
		for _, arg := range n.Args {
			parts = append(parts, Sexpr(arg))
		}
		return parens(parts[0], parts[1:]...)
	case *FuncExpr:
		parts := []string{"fun", paramList(n.Params)}
		for _, stmt := range n.Body {
			parts = append(parts, SexprStmt(stmt))
		}
		return parens(parts[0], parts[1:]...)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

// SexprStmt renders a statement as an s-expression. Expression statements
// render as the bare expression.
func SexprStmt(s Stmt) string {
	switch n := s.(type) {
	case *ExprStmt:
		return Sexpr(n.Expr)
	case *PrintStmt:
		return parens("print", Sexpr(n.Expr))
	case *VarDecl:
		if n.Init == nil {
			return parens("var", n.Name.Lexeme)
		}
		return parens("var", n.Name.Lexeme, Sexpr(n.Init))
	case *BlockStmt:
		parts := []string{"block"}
		for _, stmt := range n.Stmts {
			parts = append(parts, SexprStmt(stmt))
		}
		return parens(parts[0], parts[1:]...)
	case *IfStmt:
		if n.Else == nil {
			return parens("if", Sexpr(n.Condition), SexprStmt(n.Then))
		}
		return parens("if", Sexpr(n.Condition), SexprStmt(n.Then), SexprStmt(n.Else))
	case *WhileStmt:
		return parens("while", Sexpr(n.Condition), SexprStmt(n.Body))
	case *BreakStmt:
		return "(break)"
	case *ReturnStmt:
		if n.Value == nil {
			return "(return)"
		}
		return parens("return", Sexpr(n.Value))
	case *FuncDecl:
		parts := []string{"fun", n.Name.Lexeme, paramList(n.Params)}
		for _, stmt := range n.Body {
			parts = append(parts, SexprStmt(stmt))
		}
		return parens(parts[0], parts[1:]...)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%T>", s)
	}
}

func parens(head string, rest ...string) string {
	return "(" + strings.Join(append([]string{head}, rest...), " ") + ")"
}

func paramList(params []token.Token) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return "(" + strings.Join(names, " ") + ")"
}

func literalString(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
