// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"

	"lume-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // identifiers: x, foo, makeCounter
	NUMBER // number literals: 123, 3.14
	STRING // string literals: "hello"

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	BANG    // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;

	// Keywords
	KW_AND
	KW_BREAK
	KW_CLASS
	KW_ELSE
	KW_FALSE
	KW_FUN
	KW_FOR
	KW_IF
	KW_NIL
	KW_OR
	KW_PRINT
	KW_RETURN
	KW_SUPER
	KW_THIS
	KW_TRUE
	KW_VAR
	KW_WHILE
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	BANG:    "!",
	EQ:      "==",
	NEQ:     "!=",
	LT:      "<",
	LTE:     "<=",
	GT:      ">",
	GTE:     ">=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",

	KW_AND:    "and",
	KW_BREAK:  "break",
	KW_CLASS:  "class",
	KW_ELSE:   "else",
	KW_FALSE:  "false",
	KW_FUN:    "fun",
	KW_FOR:    "for",
	KW_IF:     "if",
	KW_NIL:    "nil",
	KW_OR:     "or",
	KW_PRINT:  "print",
	KW_RETURN: "return",
	KW_SUPER:  "super",
	KW_THIS:   "this",
	KW_TRUE:   "true",
	KW_VAR:    "var",
	KW_WHILE:  "while",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_AND && k <= KW_WHILE
}

// IsLiteral returns true if the kind is a literal (ident/number/string).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

// Reserved words. class/super/this are scanned as keywords even though lume
// has no classes; the parser rejects them with a proper diagnostic instead
// of letting them pass as identifiers.
var keywords = map[string]Kind{
	"and":    KW_AND,
	"break":  KW_BREAK,
	"class":  KW_CLASS,
	"else":   KW_ELSE,
	"false":  KW_FALSE,
	"fun":    KW_FUN,
	"for":    KW_FOR,
	"if":     KW_IF,
	"nil":    KW_NIL,
	"or":     KW_OR,
	"print":  KW_PRINT,
	"return": KW_RETURN,
	"super":  KW_SUPER,
	"this":   KW_THIS,
	"true":   KW_TRUE,
	"var":    KW_VAR,
	"while":  KW_WHILE,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token represents a lexical token. Lexeme is the exact source substring the
// token was scanned from; Literal carries the decoded payload for NUMBER
// (float64) and STRING (string) tokens and is nil for every other kind.
type Token struct {
	Kind    Kind      `json:"kind"`
	Lexeme  string    `json:"lexeme"`
	Literal any       `json:"literal,omitempty"`
	Span    span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
