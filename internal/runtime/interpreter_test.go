package runtime

import (
	"bytes"
	"strings"
	"testing"

	"lume-lang/internal/lexer"
	"lume-lang/internal/parser"
	"lume-lang/internal/resolver"
)

// runSource scans, parses, resolves, and executes source code, returning
// captured output and any runtime error. Static diagnostics fail the test.
func runSource(t *testing.T, source string, repl bool) (string, error) {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.lm").Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lex diagnostics: %v", lexDiags)
	}
	stmts, parseDiags := parser.New(tokens).Parse()
	if len(parseDiags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", parseDiags)
	}
	locals, resolveDiags := resolver.New().Resolve(stmts)
	if len(resolveDiags) > 0 {
		t.Fatalf("unexpected resolve diagnostics: %v", resolveDiags)
	}

	var buf bytes.Buffer
	err := NewInterpreter(&buf, repl).Interpret(stmts, locals)
	return buf.String(), err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(t, source, false)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

func expectError(t *testing.T, source, contains string) {
	t.Helper()
	_, err := runSource(t, source, false)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
}

// ---- Tests ----

func TestPrintLiterals(t *testing.T) {
	expectOutput(t, `print 42;`, "42\n")
	expectOutput(t, `print "hello";`, "hello\n")
	expectOutput(t, `print true;`, "true\n")
	expectOutput(t, `print nil;`, "nil\n")
}

func TestNumberFormatting(t *testing.T) {
	// Whole numbers print without a fraction.
	expectOutput(t, `print 2.0 + 1.0;`, "3\n")
	expectOutput(t, `print 10 / 4;`, "2.5\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print 1 + 2 * 3;`, "7\n")
	expectOutput(t, `print (1 + 2) * 3;`, "9\n")
	expectOutput(t, `print 10 % 3;`, "1\n")
	expectOutput(t, `print -5 + 3;`, "-2\n")
}

func TestStringConcatenation(t *testing.T) {
	expectOutput(t, `print "foo" + "bar";`, "foobar\n")
	// Either side being a string converts the other.
	expectOutput(t, `print "n=" + 4;`, "n=4\n")
	expectOutput(t, `print 4 + "=n";`, "4=n\n")
	expectOutput(t, `print "is " + true;`, "is true\n")
}

func TestDivisionByZero(t *testing.T) {
	expectError(t, `print 1 / 0;`, "Division by zero")
	expectError(t, `print 1 % 0;`, "Division by zero")
}

func TestUnaryOperandChecks(t *testing.T) {
	expectError(t, `print -"x";`, "Operand must be a number")
	expectError(t, `print 1 - "x";`, "Operands must be numbers")
	expectError(t, `print true + false;`, "Operands must be numbers or strings")
}

func TestTruthiness(t *testing.T) {
	// Only nil and false are falsy; 0 and "" are truthy.
	expectOutput(t, `if (0) print "yes"; else print "no";`, "yes\n")
	expectOutput(t, `if ("") print "yes"; else print "no";`, "yes\n")
	expectOutput(t, `if (nil) print "yes"; else print "no";`, "no\n")
	expectOutput(t, `print !nil;`, "true\n")
}

func TestEqualityNoCoercion(t *testing.T) {
	expectOutput(t, `print 1 == "1";`, "false\n")
	expectOutput(t, `print nil == nil;`, "true\n")
	expectOutput(t, `print nil == false;`, "false\n")
	expectOutput(t, `print "a" != "b";`, "true\n")
	expectOutput(t, `print 2 == 2.0;`, "true\n")
}

func TestComparisons(t *testing.T) {
	expectOutput(t, `print 1 < 2;`, "true\n")
	expectOutput(t, `print 2 <= 2;`, "true\n")
	expectError(t, `print "a" < "b";`, "Operands must be numbers")
}

func TestLogicalReturnsOperandValues(t *testing.T) {
	expectOutput(t, `print "hi" or 2;`, "hi\n")
	expectOutput(t, `print nil or "fallback";`, "fallback\n")
	expectOutput(t, `print nil and "yes";`, "nil\n")
	expectOutput(t, `print "hi" and 2;`, "2\n")
}

func TestLogicalShortCircuitSkipsSideEffects(t *testing.T) {
	expectOutput(t, `
var called = false;
fun touch() { called = true; return true; }
var r = true or touch();
print called;
`, "false\n")

	expectOutput(t, `
var called = false;
fun touch() { called = true; return true; }
var r = false and touch();
print called;
`, "false\n")
}

func TestVarAndAssignment(t *testing.T) {
	expectOutput(t, `var x = 1; x = 2; print x;`, "2\n")
	expectOutput(t, `var x; print x;`, "nil\n")
	expectOutput(t, `var a; var b; a = b = 3; print a + b;`, "6\n")
}

func TestUndefinedVariable(t *testing.T) {
	expectError(t, `print y;`, "Undefined variable 'y'")
	expectError(t, `y = 1;`, "Undefined variable 'y'")
}

func TestBlockScopingAndShadowing(t *testing.T) {
	expectOutput(t, `
{
  var a = "outer";
  {
    var a = "inner";
    print a;
  }
  print a;
}
`, "inner\nouter\n")
}

func TestShadowingAssignsToInner(t *testing.T) {
	expectOutput(t, `
var a = "global";
{
  var a = "local";
  a = "changed";
  print a;
}
print a;
`, "changed\nglobal\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
var i = 0;
var sum = 0;
while (i < 5) {
  sum = sum + i;
  i = i + 1;
}
print sum;
`, "10\n")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, `
var sum = 0;
for (var i = 1; i <= 4; i = i + 1) sum = sum + i;
print sum;
`, "10\n")
}

func TestBreakExitsNearestLoop(t *testing.T) {
	expectOutput(t, `
var rows = 0;
var cells = 0;
for (var i = 0; i < 3; i = i + 1) {
  rows = rows + 1;
  for (var j = 0; j < 10; j = j + 1) {
    if (j == 2) break;
    cells = cells + 1;
  }
}
print rows;
print cells;
`, "3\n6\n")
}

func TestFunctionCallAndReturn(t *testing.T) {
	expectOutput(t, `
fun add(a, b) { return a + b; }
print add(1, 2);
`, "3\n")
}

func TestImplicitNilReturn(t *testing.T) {
	expectOutput(t, `
fun noop() {}
print noop();
`, "nil\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
`, "55\n")
}

func TestClosureCapturesDefiningEnvironment(t *testing.T) {
	expectOutput(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var counter = makeCounter();
print counter();
print counter();
var fresh = makeCounter();
print fresh();
`, "1\n2\n1\n")
}

func TestAnonymousFunction(t *testing.T) {
	expectOutput(t, `
var twice = fun (f, x) { return f(f(x)); };
print twice(fun (n) { return n + 1; }, 0);
`, "2\n")
}

func TestArityMismatch(t *testing.T) {
	expectError(t, `
fun f(a, b) { return a; }
f(1);
`, "Expected 2 arguments but got 1")
}

func TestNonCallable(t *testing.T) {
	expectError(t, `"nope"();`, "Can only call functions")
}

func TestReturnStopsExecution(t *testing.T) {
	expectOutput(t, `
fun f() {
  print "before";
  return 1;
  print "after";
}
f();
`, "before\n")
}

func TestReturnInsideLoop(t *testing.T) {
	// Return propagates through the loop; break would not.
	expectOutput(t, `
fun firstOver(limit) {
  var i = 0;
  while (true) {
    if (i > limit) return i;
    i = i + 1;
  }
}
print firstOver(3);
`, "4\n")
}

func TestReplModePrintsExpressionResults(t *testing.T) {
	out, err := runSource(t, `1 + 2;`, true)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "3\n" {
		t.Errorf("expected auto-printed result, got %q", out)
	}

	// Declarations print nothing.
	out, err = runSource(t, `var x = 5;`, true)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output for a declaration, got %q", out)
	}
}

func TestClockBuiltin(t *testing.T) {
	out, err := runSource(t, `print clock() >= 0;`, false)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "true\n" {
		t.Errorf("expected true, got %q", out)
	}
}

func TestRuntimeErrorCarriesLine(t *testing.T) {
	_, err := runSource(t, "var a = 1;\nprint a / 0;", false)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	rtErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if rtErr.Span.Start.Line != 2 {
		t.Errorf("expected error on line 2, got %d", rtErr.Span.Start.Line)
	}
}
