package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"lume-lang/internal/runtime"
)

func stageOf(t *testing.T, err error) Stage {
	t.Helper()
	var stageErr *Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *pipeline.Error, got %T: %v", err, err)
	}
	return stageErr.Stage
}

func TestRunSuccess(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(`print 1 + 1;`, "test.lm", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "2\n" {
		t.Errorf("expected output 2, got %q", buf.String())
	}
}

func TestRunClassifiesScanError(t *testing.T) {
	err := Run(`var a = @;`, "test.lm", &bytes.Buffer{})
	if got := stageOf(t, err); got != StageScan {
		t.Errorf("expected scan stage, got %s", got)
	}
}

func TestRunClassifiesParseError(t *testing.T) {
	err := Run(`print ;`, "test.lm", &bytes.Buffer{})
	if got := stageOf(t, err); got != StageParse {
		t.Errorf("expected parse stage, got %s", got)
	}
}

func TestRunClassifiesResolveError(t *testing.T) {
	err := Run(`return 1;`, "test.lm", &bytes.Buffer{})
	if got := stageOf(t, err); got != StageResolve {
		t.Errorf("expected resolve stage, got %s", got)
	}
}

func TestRunPassesThroughRuntimeError(t *testing.T) {
	err := Run(`print 1 / 0;`, "test.lm", &bytes.Buffer{})
	var runErr *runtime.Error
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *runtime.Error, got %T: %v", err, err)
	}
}

func TestStaticErrorsAggregate(t *testing.T) {
	// Both parse errors surface in one aggregate.
	err := Run("var = 1;\nvar = 2;", "test.lm", &bytes.Buffer{})
	var stageErr *Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *pipeline.Error, got %T", err)
	}
	if len(stageErr.Diags) != 2 {
		t.Errorf("expected 2 diagnostics, got %d: %v", len(stageErr.Diags), stageErr.Diags)
	}
}

func TestNoOutputBeforeStaticFailure(t *testing.T) {
	// Static errors are raised before anything executes.
	var buf bytes.Buffer
	err := Run("print \"side effect\";\nbreak;", "test.lm", &buf)
	if err == nil {
		t.Fatal("expected an error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSessionKeepsDefinitionsAcrossLines(t *testing.T) {
	var buf bytes.Buffer
	session := NewSession(&buf)

	lines := []string{
		`var x = 10;`,
		`fun double(n) { return n * 2; }`,
		`print double(x);`,
	}
	for _, line := range lines {
		if err := session.Eval(line); err != nil {
			t.Fatalf("eval %q: %v", line, err)
		}
	}
	if buf.String() != "20\n" {
		t.Errorf("expected 20, got %q", buf.String())
	}
}

func TestSessionClosuresSurviveLaterLines(t *testing.T) {
	// A closure defined on one line keeps its binding distances when
	// called from a later line.
	var buf bytes.Buffer
	session := NewSession(&buf)

	lines := []string{
		`fun makeCounter() { var n = 0; fun next() { n = n + 1; return n; } return next; }`,
		`var c = makeCounter();`,
		`c();`,
		`c();`,
	}
	for _, line := range lines {
		if err := session.Eval(line); err != nil {
			t.Fatalf("eval %q: %v", line, err)
		}
	}
	if buf.String() != "1\n2\n" {
		t.Errorf("expected auto-printed 1 and 2, got %q", buf.String())
	}
}

func TestSessionAutoPrintsExpressions(t *testing.T) {
	var buf bytes.Buffer
	session := NewSession(&buf)
	if err := session.Eval(`1 + 2 * 3;`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if buf.String() != "7\n" {
		t.Errorf("expected 7, got %q", buf.String())
	}
}

func TestSessionRedeclareGlobal(t *testing.T) {
	var buf bytes.Buffer
	session := NewSession(&buf)
	for _, line := range []string{`var x = 1;`, `var x = 2;`, `print x;`} {
		if err := session.Eval(line); err != nil {
			t.Fatalf("eval %q: %v", line, err)
		}
	}
	if !strings.HasSuffix(buf.String(), "2\n") {
		t.Errorf("expected redeclared value 2, got %q", buf.String())
	}
}

func TestSessionSurvivesErrors(t *testing.T) {
	var buf bytes.Buffer
	session := NewSession(&buf)
	if err := session.Eval(`var x = 1;`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if err := session.Eval(`print y;`); err == nil {
		t.Fatal("expected an undefined-variable error")
	}
	if err := session.Eval(`print x;`); err != nil {
		t.Fatalf("definitions should survive a failed line: %v", err)
	}
	if buf.String() != "1\n" {
		t.Errorf("expected 1, got %q", buf.String())
	}
}
