package ast

import (
	"lume-lang/internal/span"
	"lume-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]any {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	// ---- Expressions ----
	case *LiteralExpr:
		return m("LiteralExpr", n.Span, "value", n.Value)
	case *GroupingExpr:
		return m("GroupingExpr", n.Span, "inner", NodeToMap(n.Inner))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", n.Op.Kind.String(), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", n.Op.Kind.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *LogicalExpr:
		return m("LogicalExpr", n.Span,
			"op", n.Op.Kind.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *VariableExpr:
		return m("VariableExpr", n.Span, "name", n.Name.Lexeme)
	case *AssignExpr:
		return m("AssignExpr", n.Span,
			"name", n.Name.Lexeme,
			"value", NodeToMap(n.Value))
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *FuncExpr:
		return m("FuncExpr", n.Span, "params", paramNames(n.Params), "body", stmtSlice(n.Body))

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *PrintStmt:
		return m("PrintStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *VarDecl:
		result := m("VarDecl", n.Span, "name", n.Name.Lexeme)
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		return result
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", stmtSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *BreakStmt:
		return m("BreakStmt", n.Span)
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name.Lexeme,
			"params", paramNames(n.Params),
			"body", stmtSlice(n.Body))

	default:
		return map[string]any{"kind": "Unknown"}
	}
}

// ProgramToMap converts a statement list to a JSON-ready map with a
// "Program" root, mirroring what the parser produces for a whole file.
func ProgramToMap(stmts []Stmt) map[string]any {
	return map[string]any{
		"kind": "Program",
		"body": stmtSlice(stmts),
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...any) map[string]any {
	result := map[string]any{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]any {
	return map[string]any{
		"start": map[string]any{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]any{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []any {
	result := make([]any, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []any {
	result := make([]any, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func paramNames(params []token.Token) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return names
}
