// Package lexer implements the lexical analysis (tokenization) for lume.
//
// The lexer is a lazy, single-pass scanner: Next produces one token per
// call and diagnostics accumulate only for input that has actually been
// consumed. Tokenize drains the whole source and returns the token slice
// together with every diagnostic found, terminated by exactly one EOF
// token.
package lexer

import (
	"strconv"

	"lume-lang/internal/diag"
	"lume-lang/internal/span"
	"lume-lang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// Diagnostics returns the diagnostics recorded so far. Input that has not
// been consumed yet contributes nothing: a caller that stops pulling tokens
// early never observes errors in the unread remainder.
func (l *Lexer) Diagnostics() []diag.Diagnostic {
	return l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it. Line count is
// maintained here for every newline, including newlines inside strings.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// match consumes the current character if it equals expected.
func (l *Lexer) match(expected byte) bool {
	if l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// lexeme returns the exact source substring from start to the current
// position. Tokens must round-trip: concatenating lexemes and skipped
// trivia reproduces the source byte for byte.
func (l *Lexer) lexeme(start span.Position) string {
	return l.source[start.Offset:l.pos]
}

// skipTrivia skips whitespace and line comments. Newlines are consumed
// here too; advance keeps the line count.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.source) {
		switch ch := l.source[l.pos]; ch {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, format string, args ...any) {
	l.diags = append(l.diags, diag.Errorf(code, s, format, args...))
}

func (l *Lexer) makeToken(kind token.Kind, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: l.lexeme(start), Span: l.makeSpan(start)}
}

// ---- token reading ----

// Next scans and returns the next token. After the EOF token has been
// produced it is returned again on every subsequent call.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()

	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Lexeme: "", Span: l.makeSpan(l.curPos())}
	}

	start := l.curPos()
	ch := l.advance()

	switch {
	case ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	}

	switch ch {
	case '(':
		return l.makeToken(token.LPAREN, start)
	case ')':
		return l.makeToken(token.RPAREN, start)
	case '{':
		return l.makeToken(token.LBRACE, start)
	case '}':
		return l.makeToken(token.RBRACE, start)
	case ',':
		return l.makeToken(token.COMMA, start)
	case '.':
		return l.makeToken(token.DOT, start)
	case ';':
		return l.makeToken(token.SEMICOLON, start)
	case '+':
		return l.makeToken(token.PLUS, start)
	case '-':
		return l.makeToken(token.MINUS, start)
	case '*':
		return l.makeToken(token.STAR, start)
	case '/':
		// '//' comments were consumed by skipTrivia
		return l.makeToken(token.SLASH, start)
	case '%':
		return l.makeToken(token.PERCENT, start)
	case '!':
		if l.match('=') {
			return l.makeToken(token.NEQ, start)
		}
		return l.makeToken(token.BANG, start)
	case '=':
		if l.match('=') {
			return l.makeToken(token.EQ, start)
		}
		return l.makeToken(token.ASSIGN, start)
	case '<':
		if l.match('=') {
			return l.makeToken(token.LTE, start)
		}
		return l.makeToken(token.LT, start)
	case '>':
		if l.match('=') {
			return l.makeToken(token.GTE, start)
		}
		return l.makeToken(token.GT, start)
	default:
		l.addError("E1003", l.makeSpan(start), "Unexpected character '%s'.", string(ch))
		return l.makeToken(token.ILLEGAL, start)
	}
}

// readString reads a string literal. The opening quote has been consumed.
// Newlines are legal inside strings. An unknown escape records an error but
// keeps the escaped character verbatim; an unterminated string records an
// error and yields the partial literal.
func (l *Lexer) readString(start span.Position) token.Token {
	var value []byte

	for l.pos < len(l.source) {
		ch := l.advance()
		if ch == '"' {
			tok := l.makeToken(token.STRING, start)
			tok.Literal = string(value)
			return tok
		}
		if ch == '\\' {
			if l.pos >= len(l.source) {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case 'r':
				value = append(value, '\r')
			case '"':
				value = append(value, '"')
			case '\\':
				value = append(value, '\\')
			default:
				l.addError("E1002", l.makeSpan(start), "Unknown escape sequence '\\%c'.", esc)
				value = append(value, esc)
			}
			continue
		}
		value = append(value, ch)
	}

	l.addError("E1001", l.makeSpan(start), "Unterminated string.")
	tok := l.makeToken(token.STRING, start)
	tok.Literal = string(value)
	return tok
}

// readNumber reads a number literal: digits with an optional fraction.
// No leading-dot, trailing-dot, or exponent forms.
func (l *Lexer) readNumber(start span.Position) token.Token {
	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume '.'
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}

	tok := l.makeToken(token.NUMBER, start)
	value, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		l.addError("E1004", tok.Span, "Invalid number literal '%s'.", tok.Lexeme)
	}
	tok.Literal = value
	return tok
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.lexeme(start)
	return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Span: l.makeSpan(start)}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
