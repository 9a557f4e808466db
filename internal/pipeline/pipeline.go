// Package pipeline wires the four interpreter stages together: scan, parse,
// resolve, interpret. It is the front door used by the CLI and the REPL.
//
// The static stages accumulate diagnostics and raise them as one aggregate
// Error tagged with the failing stage; the evaluator fails fast with a
// *runtime.Error. Callers that need to distinguish the two (for exit codes)
// type-switch on the returned error.
package pipeline

import (
	"fmt"
	"io"

	"lume-lang/internal/ast"
	"lume-lang/internal/diag"
	"lume-lang/internal/lexer"
	"lume-lang/internal/parser"
	"lume-lang/internal/resolver"
	"lume-lang/internal/runtime"
	"lume-lang/internal/token"
)

// Stage identifies which static pass produced an aggregate error.
type Stage string

const (
	StageScan    Stage = "scan"
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
)

// Error aggregates the diagnostics of one failed static stage.
type Error struct {
	Stage Stage
	Diags diag.List
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Diags.Error())
}

// stageErr wraps diagnostics in an Error when any has error severity.
func stageErr(stage Stage, diags []diag.Diagnostic) error {
	if diag.List(diags).Err() == nil {
		return nil
	}
	return &Error{Stage: stage, Diags: diags}
}

// Scan tokenizes a source text.
func Scan(source, filename string) ([]token.Token, error) {
	tokens, diags := lexer.New(source, filename).Tokenize()
	if err := stageErr(StageScan, diags); err != nil {
		return tokens, err
	}
	return tokens, nil
}

// Check runs the static stages only: scan, parse, resolve. It returns the
// parsed program and the binding distances for the evaluator.
func Check(source, filename string) ([]ast.Stmt, resolver.Locals, error) {
	tokens, err := Scan(source, filename)
	if err != nil {
		return nil, nil, err
	}

	stmts, parseDiags := parser.New(tokens).Parse()
	if err := stageErr(StageParse, parseDiags); err != nil {
		return stmts, nil, err
	}

	locals, resolveDiags := resolver.New().Resolve(stmts)
	if err := stageErr(StageResolve, resolveDiags); err != nil {
		return stmts, locals, err
	}
	return stmts, locals, nil
}

// Run executes one program through the whole pipeline, writing print output
// to w.
func Run(source, filename string, w io.Writer) error {
	stmts, locals, err := Check(source, filename)
	if err != nil {
		return err
	}
	return runtime.NewInterpreter(w, false).Interpret(stmts, locals)
}

// Session holds a persistent interpreter for the REPL. Definitions from one
// line stay visible on later lines because every Eval shares the same global
// frame and locals table.
type Session struct {
	interp *runtime.Interpreter
}

// NewSession creates a REPL session writing program output to w.
func NewSession(w io.Writer) *Session {
	return &Session{interp: runtime.NewInterpreter(w, true)}
}

// Eval runs one REPL line. Bare expression statements print their value.
func (s *Session) Eval(source string) error {
	stmts, locals, err := Check(source, "<repl>")
	if err != nil {
		return err
	}
	return s.interp.Interpret(stmts, locals)
}
