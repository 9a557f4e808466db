package resolver

import (
	"strings"
	"testing"

	"lume-lang/internal/ast"
	"lume-lang/internal/diag"
	"lume-lang/internal/lexer"
	"lume-lang/internal/parser"
)

func resolveSource(t *testing.T, source string) (Locals, []diag.Diagnostic) {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.lm").Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lex diagnostics: %v", lexDiags)
	}
	stmts, parseDiags := parser.New(tokens).Parse()
	if len(parseDiags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", parseDiags)
	}
	return New().Resolve(stmts)
}

func expectResolveError(t *testing.T, source, code, contains string) {
	t.Helper()
	_, diags := resolveSource(t, source)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic containing %q, got none", contains)
	}
	found := false
	for _, d := range diags {
		if d.Code == code && strings.Contains(d.Message, contains) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s diagnostic containing %q, got %v", code, contains, diags)
	}
}

// distanceByName finds the recorded distance of the reference to name, by
// walking the locals table keys.
func distanceByName(t *testing.T, locals Locals, name string) (int, bool) {
	t.Helper()
	dist := -1
	count := 0
	for expr, d := range locals {
		if v, ok := expr.(*ast.VariableExpr); ok && v.Name.Lexeme == name {
			dist = d
			count++
		}
	}
	if count > 1 {
		t.Fatalf("more than one reference to %q in locals; use distinct names", name)
	}
	return dist, count == 1
}

func TestResolveSameBlockDistanceZero(t *testing.T) {
	locals, diags := resolveSource(t, `{ var a = 1; print a; }`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if d, ok := distanceByName(t, locals, "a"); !ok || d != 0 {
		t.Errorf("expected distance 0 for a, got %d (found=%v)", d, ok)
	}
}

func TestResolveOuterBlockDistanceOne(t *testing.T) {
	locals, diags := resolveSource(t, `{ var a = 1; { print a; } }`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if d, ok := distanceByName(t, locals, "a"); !ok || d != 1 {
		t.Errorf("expected distance 1 for a, got %d (found=%v)", d, ok)
	}
}

func TestResolveShadowing(t *testing.T) {
	// Two blocks each declaring b: both references bind at distance 0 to
	// their own scope's b.
	locals, diags := resolveSource(t, `
{
  var b = 1;
  print b;
}
{
  var b = 2;
  print b;
}
`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	refs := 0
	for expr, d := range locals {
		if v, ok := expr.(*ast.VariableExpr); ok && v.Name.Lexeme == "b" {
			refs++
			if d != 0 {
				t.Errorf("expected distance 0, got %d", d)
			}
		}
	}
	if refs != 2 {
		t.Errorf("expected 2 resolved references to b, got %d", refs)
	}
}

func TestResolveGlobalGetsNoEntry(t *testing.T) {
	locals, diags := resolveSource(t, `var g = 1; print g;`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if _, ok := distanceByName(t, locals, "g"); ok {
		t.Error("top-level reference should have no locals entry")
	}
}

func TestResolveClosureCapture(t *testing.T) {
	// Inside the inner function, n lives one function scope up.
	locals, diags := resolveSource(t, `
fun outer(n) {
  fun inner() {
    return n;
  }
  return inner;
}
`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if d, ok := distanceByName(t, locals, "n"); !ok || d != 1 {
		t.Errorf("expected distance 1 for captured n, got %d (found=%v)", d, ok)
	}
}

func TestResolveRedeclarationInScope(t *testing.T) {
	expectResolveError(t, `{ var a = 1; var a = 2; }`, "E3001", "already declared")
}

func TestResolveGlobalRedeclarationAllowed(t *testing.T) {
	_, diags := resolveSource(t, `var a = 1; var a = 2;`)
	if len(diags) > 0 {
		t.Errorf("top-level redeclaration should be legal, got %v", diags)
	}
}

func TestResolveSelfReferentialInitializer(t *testing.T) {
	expectResolveError(t, `{ var a = a; }`, "E3002", "its own initializer")
}

func TestResolveBreakOutsideLoop(t *testing.T) {
	expectResolveError(t, `break;`, "E3003", "break outside of a loop")
	expectResolveError(t, `if (true) break;`, "E3003", "break outside of a loop")
}

func TestResolveBreakInLoopLegal(t *testing.T) {
	_, diags := resolveSource(t, `while (true) { if (true) break; }`)
	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestResolveBreakInFunctionInsideLoopIllegal(t *testing.T) {
	// Function boundaries are opaque: the loop outside doesn't count.
	expectResolveError(t, `
while (true) {
  fun f() {
    break;
  }
}
`, "E3003", "break outside of a loop")
}

func TestResolveReturnAtTopLevel(t *testing.T) {
	expectResolveError(t, `return 1;`, "E3004", "top-level code")
}

func TestResolveReturnInsideFunctionLegal(t *testing.T) {
	_, diags := resolveSource(t, `fun f() { return 1; }`)
	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestResolveAccumulatesAllViolations(t *testing.T) {
	_, diags := resolveSource(t, `
break;
return 1;
{ var a = 1; var a = 2; }
`)
	if len(diags) != 3 {
		t.Errorf("expected 3 diagnostics, got %d: %v", len(diags), diags)
	}
}

func TestResolveParamsAndRecursion(t *testing.T) {
	// A function may refer to itself by name; params resolve at distance 0.
	locals, diags := resolveSource(t, `
fun fact(n) {
  if (n < 2) return 1;
  return n * fact(n - 1);
}
`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	for expr, d := range locals {
		if v, ok := expr.(*ast.VariableExpr); ok && v.Name.Lexeme == "n" && d != 0 {
			t.Errorf("expected distance 0 for n, got %d", d)
		}
	}
}
