// Package diag provides diagnostic types shared by the static pipeline
// stages. The scanner, parser and resolver accumulate diagnostics and raise
// them in one batch at the end of their pass; only the evaluator fails fast.
package diag

import (
	"fmt"
	"strings"

	"lume-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single message from a static pipeline stage.
// Codes are stable: E1xxx scanner, E2xxx parser, E3xxx resolver.
type Diagnostic struct {
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Span     span.Span `json:"span"`
	Hint     string    `json:"hint,omitempty"`
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Severity, loc, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// List is an aggregate of diagnostics raised together at the end of a
// static pass.
type List []Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(l))
	for _, d := range l {
		b.WriteString("\n")
		b.WriteString(d.String())
	}
	return b.String()
}

// Err returns the list as an error, or nil if it holds no error-severity
// diagnostics.
func (l List) Err() error {
	for _, d := range l {
		if d.Severity == Error {
			return l
		}
	}
	return nil
}
