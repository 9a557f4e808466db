// Command lume is the CLI entry point for the lume toolchain.
//
// Usage:
//
//	lume tokens <file> [--json]    Print tokens
//	lume parse  <file> [--sexpr]   Print AST (JSON, or s-expressions)
//	lume run    <file> [--time]    Run a source file
//	lume repl                      Start interactive REPL
package main

import (
	"fmt"
	"os"
	"time"

	"lume-lang/internal/ast"
	"lume-lang/internal/lexer"
	"lume-lang/internal/parser"
	"lume-lang/internal/pipeline"
	"lume-lang/internal/resolver"
	"lume-lang/internal/runtime"
)

// Exit codes follow the sysexits convention the tests and scripts rely on.
const (
	exitUsage   = 64 // bad command line
	exitStatic  = 65 // scan, parse, or resolve error
	exitNoInput = 66 // source file unreadable
	exitRuntime = 70 // evaluation error
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	switch command := os.Args[1]; command {
	case "tokens":
		cmdTokens(readSourceArg(), os.Args[2], hasFlag("--json"))
	case "parse":
		cmdParse(readSourceArg(), os.Args[2], hasFlag("--sexpr"))
	case "run":
		cmdRun(readSourceArg(), os.Args[2], hasFlag("--time"))
	case "repl":
		cmdRepl()
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(exitUsage)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lume tokens <file> [--json]    Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  lume parse  <file> [--sexpr]   Parse and print AST")
	fmt.Fprintln(os.Stderr, "  lume run    <file> [--time]    Run a source file")
	fmt.Fprintln(os.Stderr, "  lume repl                      Start interactive REPL")
}

// readSourceArg reads the file named by the third argument, exiting with a
// usage or input error when that is impossible.
func readSourceArg() string {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		os.Exit(exitUsage)
	}
	source, err := os.ReadFile(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", os.Args[2], err)
		os.Exit(exitNoInput)
	}
	return string(source)
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// ---- tokens command ----

func cmdTokens(source, filename string, jsonMode bool) {
	tokens, diags := lexer.New(source, filename).Tokenize()

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(tokens, diags)
	}

	if len(diags) > 0 {
		os.Exit(exitStatic)
	}
}

// ---- parse command ----

func cmdParse(source, filename string, sexprMode bool) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	stmts, parseDiags := parser.New(tokens).Parse()
	allDiags := append(lexDiags, parseDiags...)

	if sexprMode {
		for _, stmt := range stmts {
			fmt.Println(ast.SexprStmt(stmt))
		}
		printDiagsText(allDiags)
	} else {
		printJSON(map[string]any{
			"ast":         ast.ProgramToMap(stmts),
			"diagnostics": diagsToSlice(allDiags),
		})
	}

	if len(allDiags) > 0 {
		os.Exit(exitStatic)
	}
}

// ---- run command ----

func cmdRun(source, filename string, timed bool) {
	phases := make([]phaseTime, 0, 4)
	mark := func(name string, start time.Time) {
		phases = append(phases, phaseTime{name, time.Since(start)})
	}

	start := time.Now()
	tokens, err := pipeline.Scan(source, filename)
	mark("scan", start)
	exitOn(err)

	start = time.Now()
	stmts, parseDiags := parser.New(tokens).Parse()
	mark("parse", start)
	exitOnDiags(parseDiags)

	start = time.Now()
	locals, resolveDiags := resolver.New().Resolve(stmts)
	mark("resolve", start)
	exitOnDiags(resolveDiags)

	start = time.Now()
	runErr := runtime.NewInterpreter(os.Stdout, false).Interpret(stmts, locals)
	mark("eval", start)
	exitOn(runErr)

	if timed {
		for _, p := range phases {
			fmt.Fprintf(os.Stderr, "%-8s %s\n", p.name, p.elapsed)
		}
	}
}

type phaseTime struct {
	name    string
	elapsed time.Duration
}
