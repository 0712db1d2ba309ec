// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan // import "madola.dev/madola/scan"

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"madola.dev/madola/config"
	"madola.dev/madola/value"
)

// Token represents a token or text string returned from the scanner.
type Token struct {
	Type Type   // The type of this item.
	Line int    // The line on which this token appears.
	Col  int    // The column (in bytes, 1-based) at which it starts.
	Text string // The text of this item.
}

// Type identifies the type of lex items.
type Type int

const (
	EOF   Type = iota // zero value so exhausted scanner delivers EOF
	Error             // error occurred; value is text of error
	// Interesting things
	Assign     // ':='
	Colon      // ':'
	Comma      // ','
	Decorator  // '@name'; Text omits the '@'
	Dot        // '.'
	Ellipsis   // '...'
	Identifier // alphanumeric or LaTeX-style identifier
	Imaginary  // number immediately followed by 'i'
	LeftBrace  // '{'
	LeftBrack  // '['
	LeftParen  // '('
	Number     // simple number
	Operator   // known operator
	RightBrace // '}'
	RightBrack // ']'
	RightParen // ')'
	Semicolon  // ';'
	String     // quoted string (without quotes, escapes undone)
	UnitNumber // number immediately followed by a unit symbol
)

var typeName = map[Type]string{
	EOF:        "EOF",
	Error:      "Error",
	Assign:     "Assign",
	Colon:      "Colon",
	Comma:      "Comma",
	Decorator:  "Decorator",
	Dot:        "Dot",
	Ellipsis:   "Ellipsis",
	Identifier: "Identifier",
	Imaginary:  "Imaginary",
	LeftBrace:  "LeftBrace",
	LeftBrack:  "LeftBrack",
	LeftParen:  "LeftParen",
	Number:     "Number",
	Operator:   "Operator",
	RightBrace: "RightBrace",
	RightBrack: "RightBrack",
	RightParen: "RightParen",
	Semicolon:  "Semicolon",
	String:     "String",
	UnitNumber: "UnitNumber",
}

func (t Type) String() string {
	if s, ok := typeName[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (i Token) String() string {
	switch {
	case i.Type == EOF:
		return "EOF"
	case i.Type == Error:
		return "error: " + i.Text
	case len(i.Text) > 10:
		return fmt.Sprintf("%s: %.10q...", i.Type, i.Text)
	}
	return fmt.Sprintf("%s: %q", i.Type, i.Text)
}

const eof = -1

// stateFn represents the state of the scanner as a function that returns the next state.
type stateFn func(*Scanner) stateFn

// Scanner holds the state of the scanner. It scans a complete source text;
// the parser consumes whole files (or whole REPL lines) at a time.
type Scanner struct {
	conf      *config.Config
	name      string // the name of the input; used only for error reports
	input     string // the text being scanned
	lastRune  rune   // most recent return from next()
	lastWidth int    // size of that rune
	line      int    // line number at start position
	pos       int    // current position in the input
	start     int    // start position of this item
	token     Token
}

// New creates and returns a new scanner for the input text.
func New(conf *config.Config, name, input string) *Scanner {
	return &Scanner{
		conf:  conf,
		name:  name,
		input: input,
		line:  1,
	}
}

// Name returns the name of the input, for error reports.
func (l *Scanner) Name() string {
	return l.name
}

func (l *Scanner) next() rune {
	if l.pos >= len(l.input) {
		l.lastRune = eof
		l.lastWidth = 0
		return eof
	}
	l.lastRune, l.lastWidth = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.lastWidth
	if l.lastRune == '\n' {
		l.line++
	}
	return l.lastRune
}

// peek returns but does not consume the next rune in the input.
func (l *Scanner) peek() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// peekAt returns the rune n bytes ahead of the current position.
func (l *Scanner) peekAt(n int) rune {
	if l.pos+n >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos+n:])
	return r
}

// backup steps back one rune. Should only be called once per call of next.
func (l *Scanner) backup() {
	if l.lastRune == eof {
		return
	}
	l.pos -= l.lastWidth
	if l.lastRune == '\n' {
		l.line--
	}
}

// emit passes an item back to the client.
func (l *Scanner) emit(t Type) stateFn {
	return l.emitText(t, l.input[l.start:l.pos])
}

// emitText is emit with the token text overridden, for tokens whose
// text differs from their lexeme (strings, decorators).
func (l *Scanner) emitText(t Type, text string) stateFn {
	tok := Token{t, l.line, l.col(), text}
	if l.conf.Debug("tokens") {
		fmt.Fprintf(l.conf.Output(), "%s:%d: emit %s\n", l.name, tok.Line, tok)
	}
	l.token = tok
	l.start = l.pos
	return nil
}

// col returns the 1-based column of the pending token's start.
func (l *Scanner) col() int {
	// Count back to the newline preceding the token start.
	nl := strings.LastIndexByte(l.input[:l.start], '\n')
	return l.start - nl
}

// accept consumes the next rune if it's from the valid set.
func (l *Scanner) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *Scanner) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

// errorf returns an error token and terminates the scan.
func (l *Scanner) errorf(format string, args ...interface{}) stateFn {
	l.token = Token{Error, l.line, l.col(), fmt.Sprintf(format, args...)}
	l.start = len(l.input)
	l.pos = len(l.input)
	return nil
}

// Next returns the next token.
func (l *Scanner) Next() Token {
	l.lastRune = eof
	l.lastWidth = 0
	l.token = Token{EOF, l.line, l.col(), "EOF"}
	state := lexAny
	for {
		state = state(l)
		if state == nil {
			return l.token
		}
	}
}

// ScanRawBrace consumes a brace-delimited block verbatim and returns the
// text between the braces. Nested braces are tracked but not interpreted.
// Used for heading and paragraph content, which is raw text.
func (l *Scanner) ScanRawBrace() (string, bool) {
	for isSpace(l.peek()) || l.peek() == '\n' {
		l.next()
	}
	l.start = l.pos
	if l.next() != '{' {
		l.backup()
		return "", false
	}
	open := l.pos
	depth := 1
	for {
		switch l.next() {
		case eof:
			return "", false
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := l.input[open : l.pos-1]
				l.start = l.pos
				return text, true
			}
		}
	}
}

// ScanRawBraceRest is ScanRawBrace for the case where the opening brace
// has already been consumed as a token.
func (l *Scanner) ScanRawBraceRest() (string, bool) {
	open := l.pos
	depth := 1
	for {
		switch l.next() {
		case eof:
			return "", false
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := l.input[open : l.pos-1]
				l.start = l.pos
				return text, true
			}
		}
	}
}

// state functions

// lexAny scans non-space items.
func lexAny(l *Scanner) stateFn {
	switch r := l.next(); {
	case r == eof:
		return nil
	case r == '\n' || isSpace(r):
		return lexSpace
	case r == ';':
		return l.emit(Semicolon)
	case r == ',':
		return l.emit(Comma)
	case r == '/':
		switch l.peek() {
		case '/':
			return lexComment
		case '*':
			return lexBlockComment
		}
		return l.emit(Operator)
	case r == '"':
		return lexQuote
	case r == '@':
		return lexDecorator
	case r == '\\':
		return lexLatexIdentifier
	case r == ':':
		if l.peek() == '=' {
			l.next()
			return l.emit(Assign)
		}
		return l.emit(Colon)
	case r == '.':
		if l.peek() == '.' && l.peekAt(1) == '.' {
			l.next()
			l.next()
			return l.emit(Ellipsis)
		}
		if isDigit(l.peek()) {
			l.backup()
			return lexNumber
		}
		return l.emit(Dot)
	case isDigit(r):
		l.backup()
		return lexNumber
	case l.isOperator(r):
		return l.emit(Operator)
	case isAlphaNumeric(r):
		l.backup()
		return lexIdentifier
	case r == '[':
		return l.emit(LeftBrack)
	case r == ']':
		return l.emit(RightBrack)
	case r == '(':
		return l.emit(LeftParen)
	case r == ')':
		return l.emit(RightParen)
	case r == '{':
		return l.emit(LeftBrace)
	case r == '}':
		return l.emit(RightBrace)
	default:
		return l.errorf("unrecognized character: %#U", r)
	}
}

// lexSpace scans a run of space characters, including newlines.
// One space has already been seen.
func lexSpace(l *Scanner) stateFn {
	for {
		r := l.peek()
		if !isSpace(r) && r != '\n' {
			break
		}
		l.next()
	}
	l.start = l.pos
	return lexAny
}

// lexComment scans a single-line comment. The first '/' has been consumed.
func lexComment(l *Scanner) stateFn {
	for {
		r := l.next()
		if r == eof || r == '\n' {
			break
		}
	}
	l.start = l.pos
	return lexAny
}

// lexBlockComment scans a multi-line comment. The first '/' has been consumed.
func lexBlockComment(l *Scanner) stateFn {
	l.next() // the '*'
	for {
		r := l.next()
		if r == eof {
			return l.errorf("unterminated comment")
		}
		if r == '*' && l.peek() == '/' {
			l.next()
			break
		}
	}
	l.start = l.pos
	return lexAny
}

// lexIdentifier scans an alphanumeric identifier, with an optional raw
// subscript group, as in beta_{1}.
func lexIdentifier(l *Scanner) stateFn {
	for isAlphaNumeric(l.peek()) {
		l.next()
	}
	if l.peek() == '{' && strings.HasSuffix(l.input[l.start:l.pos], "_") {
		if !l.rawGroup() {
			return l.errorf("unterminated subscript in identifier")
		}
	}
	return l.emit(Identifier)
}

// lexLatexIdentifier scans a backslash-introduced identifier: a Greek macro
// like \alpha, optionally subscripted (\beta_{1}), or \frac{..}{..} whose
// brace groups are kept verbatim as part of the name.
func lexLatexIdentifier(l *Scanner) stateFn {
	for unicode.IsLetter(l.peek()) {
		l.next()
	}
	word := l.input[l.start:l.pos]
	if word == "\\" {
		return l.errorf("bad character after \\")
	}
	if word == `\frac` {
		if !l.rawGroup() || !l.rawGroup() {
			return l.errorf("malformed \\frac")
		}
		return l.emit(Identifier)
	}
	if l.peek() == '_' && l.peekAt(1) == '{' {
		l.next()
		if !l.rawGroup() {
			return l.errorf("unterminated subscript in identifier")
		}
	}
	return l.emit(Identifier)
}

// rawGroup consumes a balanced {...} group, leaving it in the pending token.
func (l *Scanner) rawGroup() bool {
	if l.next() != '{' {
		l.backup()
		return false
	}
	depth := 1
	for depth > 0 {
		switch l.next() {
		case eof:
			return false
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return true
}

// lexDecorator scans a decorator name. The '@' has been consumed.
// Layout decorators also come in a spaced form (@array 2x3); the
// dimensions are folded into the token text.
func lexDecorator(l *Scanner) stateFn {
	for isAlphaNumeric(l.peek()) {
		l.next()
	}
	name := l.input[l.start+1 : l.pos]
	if name == "" {
		return l.errorf("missing decorator name after @")
	}
	if name == "array" || name == "layout" {
		if dims, ok := l.scanLayoutDims(); ok {
			name += dims
		}
	}
	return l.emitText(Decorator, name)
}

// scanLayoutDims consumes an optional " N x M" suffix after a layout
// decorator name, returning it in compact NxM form.
func (l *Scanner) scanLayoutDims() (string, bool) {
	mark := l.pos
	for isSpace(l.peek()) {
		l.next()
	}
	rows := l.digits()
	for isSpace(l.peek()) {
		l.next()
	}
	if rows == "" || l.peek() != 'x' {
		l.pos = mark
		return "", false
	}
	l.next()
	for isSpace(l.peek()) {
		l.next()
	}
	cols := l.digits()
	if cols == "" {
		l.pos = mark
		return "", false
	}
	return rows + "x" + cols, true
}

func (l *Scanner) digits() string {
	from := l.pos
	for isDigit(l.peek()) {
		l.next()
	}
	return l.input[from:l.pos]
}

// lexNumber scans a number and resolves the adjacency-sensitive literal
// forms: a trailing 'i' makes an imaginary literal, a trailing unit symbol
// (with optional ^exponent) makes a unit literal.
func lexNumber(l *Scanner) stateFn {
	l.acceptRun("0123456789")
	// A decimal point must be followed by a digit, so a range like
	// 1...10 leaves the ellipsis alone.
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.next()
		l.acceptRun("0123456789")
	}
	if l.accept("eE") {
		l.accept("+-")
		l.acceptRun("0123456789")
	}
	numEnd := l.pos
	r := l.peek()
	if !unicode.IsLetter(r) {
		return l.emit(Number)
	}
	// A letter immediately follows the digits. Either the imaginary marker
	// or a unit symbol; anything else is an error, since identifiers cannot
	// start with a digit.
	for isAlphaNumeric(l.peek()) {
		l.next()
	}
	word := l.input[numEnd:l.pos]
	if word == "i" {
		return l.emit(Imaginary)
	}
	if !value.KnownUnit(word) {
		return l.errorf("unknown unit %q", word)
	}
	if l.peek() == '^' && isDigit(l.peekAt(1)) {
		l.next()
		l.acceptRun("0123456789")
	}
	return l.emit(UnitNumber)
}

// lexQuote scans a quoted string. The opening quote has been consumed.
func lexQuote(l *Scanner) stateFn {
	var sb strings.Builder
	for {
		switch r := l.next(); r {
		case '\\':
			switch e := l.next(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return l.errorf("bad escape \\%c in string", e)
			}
		case eof, '\n':
			return l.errorf("unterminated quoted string")
		case '"':
			return l.emitText(String, sb.String())
		default:
			sb.WriteRune(r)
		}
	}
}

// isOperator reports whether r starts an operator. It may advance the
// scanner one character if it is a two-character operator.
func (l *Scanner) isOperator(r rune) bool {
	switch r {
	case '+', '-', '*', '%', '^':
		// No follow-on possible.
	case '!':
		if l.peek() == '=' {
			l.next()
		}
	case '>', '<':
		if l.peek() == '=' {
			l.next()
		}
	case '=':
		if l.peek() != '=' {
			return false
		}
		l.next()
	case '&':
		if l.peek() != '&' {
			return false
		}
		l.next()
	case '|':
		if l.peek() == '|' {
			l.next()
		}
	default:
		return false
	}
	return true
}

// isSpace reports whether r is a space character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isDigit reports whether r is an ASCII digit.
func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
