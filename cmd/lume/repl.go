package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"lume-lang/internal/pipeline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ---- repl command ----

func cmdRepl() {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".lume_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "lume> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(exitRuntime)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%slume REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	session := pipeline.NewSession(rl.Stdout())
	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...   " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "lume> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		// Brace counting keeps the prompt open for multi-line blocks.
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		if strings.TrimSpace(source) == "" {
			continue
		}

		if err := session.Eval(source); err != nil {
			printErrColored(rl.Stderr(), err)
		}
	}
}

// printErrColored prints an evaluation error in red. Static aggregate
// errors are unpacked into one diagnostic per line.
func printErrColored(w io.Writer, err error) {
	var stageErr *pipeline.Error
	if errors.As(err, &stageErr) {
		for _, d := range stageErr.Diags {
			fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
		}
		return
	}
	fmt.Fprintf(w, "%s%s%s\n", colorRed, err, colorReset)
}
