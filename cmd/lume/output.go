package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"lume-lang/internal/diag"
	"lume-lang/internal/pipeline"
	"lume-lang/internal/runtime"
	"lume-lang/internal/token"
)

// ---- error to exit code mapping ----

// exitOn prints a pipeline or runtime error and exits with the code for its
// kind. A nil error is a no-op.
func exitOn(err error) {
	if err == nil {
		return
	}

	var stageErr *pipeline.Error
	if errors.As(err, &stageErr) {
		printDiagsText(stageErr.Diags)
		os.Exit(exitStatic)
	}
	var runErr *runtime.Error
	if errors.As(err, &runErr) {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(exitRuntime)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitRuntime)
}

// exitOnDiags prints static-stage diagnostics, if any have error severity,
// and exits with the static error code.
func exitOnDiags(diags []diag.Diagnostic) {
	if diag.List(diags).Err() == nil {
		return
	}
	printDiagsText(diags)
	os.Exit(exitStatic)
}

// ---- output helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(exitRuntime)
	}
}

func printDiagsText(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]any {
	result := make([]map[string]any, len(diags))
	for i, d := range diags {
		result[i] = map[string]any{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensText(tokens []token.Token, diags []diag.Diagnostic) {
	for _, tok := range tokens {
		fmt.Printf("%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
	printDiagsText(diags)
}

func printTokensJSON(tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind    string `json:"kind"`
		Lexeme  string `json:"lexeme"`
		Literal any    `json:"literal,omitempty"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
		Offset  int    `json:"offset"`
	}

	var toks []tokenJSON
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Span.Start.Line,
			Column:  tok.Span.Start.Column,
			Offset:  tok.Span.Start.Offset,
		})
	}

	printJSON(map[string]any{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	})
}
