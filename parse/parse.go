// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse builds the AST for a madola source file. The parser is
// recursive descent with precedence climbing for expressions; a syntax
// error aborts the file with a position-tagged error and no partial tree.
package parse // import "madola.dev/madola/parse"

import (
	"fmt"
	"strconv"
	"strings"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/scan"
	"madola.dev/madola/value"
)

// Parser stores the state for the parser.
type Parser struct {
	scanner  *scan.Scanner
	config   *config.Config
	fileName string

	peekTok  scan.Token
	havePeek bool
}

// NewParser returns a parser reading tokens from the scanner.
func NewParser(conf *config.Config, scanner *scan.Scanner) *Parser {
	return &Parser{
		scanner:  scanner,
		config:   conf,
		fileName: scanner.Name(),
	}
}

// Program parses the whole input. A syntax error is returned with its
// position; no partial program is returned.
func (p *Parser) Program() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(value.Error)
			if !ok {
				panic(r)
			}
			prog = nil
			err = e
		}
	}()
	prog = &ast.Program{Name: p.fileName}
	for {
		tok := p.peek()
		if tok.Type == scan.EOF {
			break
		}
		if tok.Type == scan.Error {
			p.errorAt(tok, "%s", tok.Text)
		}
		prog.Stmts = append(prog.Stmts, p.statement())
	}
	return prog, nil
}

// errorAt reports a syntax error at the given token and unwinds.
func (p *Parser) errorAt(tok scan.Token, format string, args ...interface{}) {
	value.Errorf("%s:%d:%d: %s", p.fileName, tok.Line, tok.Col, fmt.Sprintf(format, args...))
}

func (p *Parser) next() scan.Token {
	if p.havePeek {
		p.havePeek = false
		return p.peekTok
	}
	tok := p.scanner.Next()
	if tok.Type == scan.Error {
		p.errorAt(tok, "%s", tok.Text)
	}
	return tok
}

func (p *Parser) peek() scan.Token {
	if !p.havePeek {
		p.peekTok = p.scanner.Next()
		if p.peekTok.Type == scan.Error {
			p.errorAt(p.peekTok, "%s", p.peekTok.Text)
		}
		p.havePeek = true
	}
	return p.peekTok
}

func (p *Parser) expect(typ scan.Type, context string) scan.Token {
	tok := p.next()
	if tok.Type != typ {
		p.errorAt(tok, "expected %s in %s, found %s", typ, context, tok)
	}
	return tok
}

func base(tok scan.Token) ast.Base {
	return ast.Base{At: ast.Pos{Line: tok.Line, Col: tok.Col}}
}

// keyword reports whether tok is the given keyword identifier.
func keyword(tok scan.Token, word string) bool {
	return tok.Type == scan.Identifier && tok.Text == word
}

// statement parses one statement, including any decorator prefix.
func (p *Parser) statement() ast.Statement {
	tok := p.peek()
	switch tok.Type {
	case scan.Decorator:
		return p.decorated()
	case scan.Identifier:
		switch tok.Text {
		case "fn":
			return p.funcDecl(nil)
		case "print":
			return p.printStmt()
		case "return":
			return p.returnStmt()
		case "break":
			p.next()
			p.expect(scan.Semicolon, "break statement")
			return &ast.Break{Base: base(tok)}
		case "for":
			return p.forStmt()
		case "while":
			return p.whileStmt()
		case "if":
			return p.ifStmt()
		case "import":
			return p.importStmt()
		case "from":
			return p.fromImportStmt()
		}
		return p.identStmt()
	}
	x := p.expression()
	p.expect(scan.Semicolon, "expression statement")
	return &ast.ExprStmt{Base: base(tok), X: x}
}

// decorated parses a decorator-introduced statement. Heading, paragraph,
// version, and skip markers are statements of their own; other decorator
// runs attach to the statement that follows.
func (p *Parser) decorated() ast.Statement {
	var decorators []ast.Decorator
	for p.peek().Type == scan.Decorator {
		tok := p.next()
		switch {
		case len(tok.Text) == 2 && tok.Text[0] == 'h' && '1' <= tok.Text[1] && tok.Text[1] <= '4':
			return p.headingStmt(tok)
		case tok.Text == "p":
			return p.paragraphStmt(tok)
		case tok.Text == "version":
			return p.versionStmt(tok)
		case tok.Text == "skip":
			return &ast.Skip{Base: base(tok)}
		}
		decorators = append(decorators, p.decoratorFrom(tok))
	}
	stmt := p.statement()
	if fn, ok := stmt.(*ast.FuncDecl); ok {
		fn.Decorators = decorators
	}
	// Decorators on other statements direct documentation layout only;
	// they have no effect on evaluation.
	return stmt
}

// decoratorFrom resolves a decorator token into its structured form:
// layout dimensions (@array2x3), a parameterized name (@merge2), or a
// plain name, each with an optional [style].
func (p *Parser) decoratorFrom(tok scan.Token) ast.Decorator {
	d := ast.Decorator{Name: tok.Text}
	name := tok.Text
	if rest, ok := cutLayout(name); ok {
		if rows, cols, ok := parseDims(rest); ok {
			d = ast.Decorator{Name: "layout", Rows: rows, Cols: cols}
		}
	} else if i := firstDigit(name); i > 0 {
		if param, err := strconv.Atoi(name[i:]); err == nil {
			d = ast.Decorator{Name: name[:i], Param: param}
		}
	}
	if p.peek().Type == scan.LeftBrack {
		p.next()
		style := p.expect(scan.Identifier, "decorator style")
		p.expect(scan.RightBrack, "decorator style")
		d.Style = style.Text
	}
	return d
}

func cutLayout(name string) (string, bool) {
	for _, prefix := range []string{"layout", "array"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			return rest, true
		}
	}
	return "", false
}

func parseDims(s string) (rows, cols int, ok bool) {
	r, c, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, false
	}
	rows, err1 := strconv.Atoi(r)
	cols, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || rows <= 0 || cols <= 0 {
		return 0, 0, false
	}
	return rows, cols, true
}

func firstDigit(s string) int {
	for i, r := range s {
		if '0' <= r && r <= '9' {
			return i
		}
	}
	return -1
}

// headingStmt parses @h1[style]{raw text}. The decorator token has been
// consumed.
func (p *Parser) headingStmt(tok scan.Token) ast.Statement {
	level := int(tok.Text[1] - '0')
	style, text := p.styledRawText(tok, "heading")
	return &ast.Heading{Base: base(tok), Level: level, Style: style, Text: text}
}

func (p *Parser) paragraphStmt(tok scan.Token) ast.Statement {
	style, text := p.styledRawText(tok, "paragraph")
	return &ast.Paragraph{Base: base(tok), Style: style, Text: text}
}

// styledRawText parses the optional [style] and the raw brace block of a
// heading or paragraph. The brace content is captured verbatim.
func (p *Parser) styledRawText(tok scan.Token, context string) (style, text string) {
	if p.peek().Type == scan.LeftBrack {
		p.next()
		s := p.expect(scan.Identifier, context+" style")
		p.expect(scan.RightBrack, context+" style")
		style = s.Text
	}
	var ok bool
	if p.havePeek {
		// The opening brace was already scanned as a token.
		brace := p.next()
		if brace.Type != scan.LeftBrace {
			p.errorAt(brace, "expected { after @%s", tok.Text)
		}
		text, ok = p.scanner.ScanRawBraceRest()
	} else {
		text, ok = p.scanner.ScanRawBrace()
	}
	if !ok {
		p.errorAt(tok, "unterminated @%s block", tok.Text)
	}
	return style, strings.TrimSpace(text)
}

// versionStmt parses @version <number>; the semicolon is optional.
func (p *Parser) versionStmt(tok scan.Token) ast.Statement {
	v := p.next()
	if v.Type != scan.Number && v.Type != scan.String {
		p.errorAt(v, "expected version number after @version, found %s", v)
	}
	if p.peek().Type == scan.Semicolon {
		p.next()
	}
	return &ast.Version{Base: base(tok), Text: v.Text}
}

func (p *Parser) printStmt() ast.Statement {
	tok := p.next()
	p.expect(scan.LeftParen, "print statement")
	x := p.expression()
	p.expect(scan.RightParen, "print statement")
	p.expect(scan.Semicolon, "print statement")
	return &ast.Print{Base: base(tok), X: x}
}

func (p *Parser) returnStmt() ast.Statement {
	tok := p.next()
	var x ast.Expr
	if p.peek().Type != scan.Semicolon {
		x = p.expression()
	}
	p.expect(scan.Semicolon, "return statement")
	return &ast.Return{Base: base(tok), X: x}
}

func (p *Parser) forStmt() ast.Statement {
	tok := p.next()
	v := p.expect(scan.Identifier, "for statement")
	in := p.next()
	if !keyword(in, "in") {
		p.errorAt(in, "expected in after for %s, found %s", v.Text, in)
	}
	from := p.expression()
	p.expect(scan.Ellipsis, "for range")
	to := p.expression()
	p.expect(scan.LeftBrace, "for body")
	body := p.blockRest()
	return &ast.For{Base: base(tok), Var: v.Text, From: from, To: to, Body: body}
}

func (p *Parser) whileStmt() ast.Statement {
	tok := p.next()
	p.expect(scan.LeftParen, "while condition")
	cond := p.expression()
	p.expect(scan.RightParen, "while condition")
	body := p.blockOrStmt()
	return &ast.While{Base: base(tok), Cond: cond, Body: body}
}

func (p *Parser) ifStmt() ast.Statement {
	tok := p.next()
	p.expect(scan.LeftParen, "if condition")
	cond := p.expression()
	p.expect(scan.RightParen, "if condition")
	then := p.blockOrStmt()
	var els []ast.Statement
	if keyword(p.peek(), "else") {
		p.next()
		els = p.blockOrStmt()
	}
	return &ast.If{Base: base(tok), Cond: cond, Then: then, Else: els}
}

// blockOrStmt parses either a brace-delimited block or a single statement.
func (p *Parser) blockOrStmt() []ast.Statement {
	if p.peek().Type == scan.LeftBrace {
		p.next()
		return p.blockRest()
	}
	return []ast.Statement{p.statement()}
}

// blockRest parses statements until the closing brace. The opening brace
// has been consumed.
func (p *Parser) blockRest() []ast.Statement {
	var stmts []ast.Statement
	for {
		tok := p.peek()
		if tok.Type == scan.RightBrace {
			p.next()
			return stmts
		}
		if tok.Type == scan.EOF {
			p.errorAt(tok, "unexpected EOF in block")
		}
		stmts = append(stmts, p.statement())
	}
}

func (p *Parser) importStmt() ast.Statement {
	tok := p.next()
	name := p.expect(scan.Identifier, "import statement")
	p.expect(scan.Semicolon, "import statement")
	// No item list: every export of the module is bound.
	return &ast.Import{Base: base(tok), Module: name.Text}
}

func (p *Parser) fromImportStmt() ast.Statement {
	tok := p.next()
	module := p.expect(scan.Identifier, "from import")
	imp := p.next()
	if !keyword(imp, "import") {
		p.errorAt(imp, "expected import after from %s, found %s", module.Text, imp)
	}
	var items []ast.ImportItem
	for {
		name := p.expect(scan.Identifier, "import list")
		item := ast.ImportItem{Name: name.Text}
		if keyword(p.peek(), "as") {
			p.next()
			alias := p.expect(scan.Identifier, "import alias")
			item.Alias = alias.Text
		}
		items = append(items, item)
		if p.peek().Type != scan.Comma {
			break
		}
		p.next()
	}
	p.expect(scan.Semicolon, "from import")
	return &ast.Import{Base: base(tok), Module: module.Text, Items: items}
}

// funcDecl parses fn name(params) { body }.
func (p *Parser) funcDecl(decorators []ast.Decorator) ast.Statement {
	tok := p.next() // fn
	name := p.expect(scan.Identifier, "function declaration")
	p.expect(scan.LeftParen, "function parameters")
	params := p.paramList()
	p.expect(scan.LeftBrace, "function body")
	body := p.blockRest()
	return &ast.FuncDecl{
		Base:       base(tok),
		Name:       name.Text,
		Params:     params,
		Body:       body,
		Decorators: decorators,
	}
}

// paramList parses a comma-separated identifier list up to the closing
// parenthesis, which it consumes.
func (p *Parser) paramList() []string {
	var params []string
	if p.peek().Type == scan.RightParen {
		p.next()
		return params
	}
	for {
		name := p.expect(scan.Identifier, "parameter list")
		params = append(params, name.Text)
		tok := p.next()
		if tok.Type == scan.RightParen {
			return params
		}
		if tok.Type != scan.Comma {
			p.errorAt(tok, "expected , or ) in parameter list, found %s", tok)
		}
	}
}

// identStmt parses a statement that begins with a plain identifier:
// assignment, array-element assignment, a piecewise declaration, or an
// expression statement.
func (p *Parser) identStmt() ast.Statement {
	tok := p.next()
	id := &ast.Ident{Base: base(tok), Name: tok.Text}
	switch p.peek().Type {
	case scan.Assign:
		p.next()
		x := p.expression()
		p.expect(scan.Semicolon, "assignment")
		return &ast.Assign{Base: base(tok), Name: tok.Text, X: x}

	case scan.LeftParen:
		p.next()
		args := p.argListRest()
		if p.peek().Type == scan.Assign {
			p.next()
			return p.piecewiseDecl(tok, args)
		}
		call := &ast.Call{Base: base(tok), Name: tok.Text, Args: args}
		x := p.continueExpr(p.postfixTail(call))
		p.expect(scan.Semicolon, "expression statement")
		return &ast.ExprStmt{Base: base(tok), X: x}

	case scan.LeftBrack:
		p.next()
		index, col := p.indexRest()
		if p.peek().Type == scan.Assign {
			p.next()
			x := p.expression()
			p.expect(scan.Semicolon, "array assignment")
			return &ast.ArrayAssign{Base: base(tok), Name: tok.Text, Index: index, Col: col, X: x}
		}
		ix := &ast.Index{Base: base(tok), X: id, Index: index, Col: col}
		x := p.continueExpr(p.postfixTail(ix))
		p.expect(scan.Semicolon, "expression statement")
		return &ast.ExprStmt{Base: base(tok), X: x}
	}
	x := p.continueExpr(p.postfixTail(id))
	p.expect(scan.Semicolon, "expression statement")
	return &ast.ExprStmt{Base: base(tok), X: x}
}

// piecewiseDecl parses the tail of f(params) := piecewise { ... };
// The arguments parsed as a call must all be plain identifiers.
func (p *Parser) piecewiseDecl(name scan.Token, args []ast.Expr) ast.Statement {
	params := make([]string, len(args))
	for i, a := range args {
		id, ok := a.(*ast.Ident)
		if !ok {
			p.errorAt(name, "parameters of %s must be identifiers", name.Text)
		}
		params[i] = id.Name
	}
	kw := p.next()
	if !keyword(kw, "piecewise") {
		p.errorAt(kw, "expected piecewise after :=, found %s", kw)
	}
	cases := p.piecewiseBody(kw)
	p.expect(scan.Semicolon, "piecewise declaration")
	return &ast.PiecewiseDecl{
		Base:   base(name),
		Name:   name.Text,
		Params: params,
		Cases:  cases,
	}
}

// piecewiseBody parses { (expr, cond), ..., (expr, otherwise) }.
func (p *Parser) piecewiseBody(tok scan.Token) *ast.Piecewise {
	p.expect(scan.LeftBrace, "piecewise cases")
	pw := &ast.Piecewise{Base: base(tok)}
	for {
		if p.peek().Type == scan.RightBrace {
			break
		}
		p.expect(scan.LeftParen, "piecewise case")
		val := p.expression()
		p.expect(scan.Comma, "piecewise case")
		var cond ast.Expr
		if keyword(p.peek(), "otherwise") {
			p.next()
		} else {
			cond = p.expression()
		}
		p.expect(scan.RightParen, "piecewise case")
		pw.Cases = append(pw.Cases, ast.Case{Value: val, Cond: cond})
		if p.peek().Type != scan.Comma {
			break
		}
		p.next()
	}
	p.expect(scan.RightBrace, "piecewise cases")
	if len(pw.Cases) == 0 {
		p.errorAt(tok, "piecewise with no cases")
	}
	return pw
}

// Expressions.

// binPrec maps binary operators to precedence levels; higher binds
// tighter. Power is right-associative and handled specially.
var binPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
	"^": 6,
}

const powerPrec = 6

// expression parses a full expression, including a trailing pipe
// substitution list.
func (p *Parser) expression() ast.Expr {
	return p.continueExpr(p.operand())
}

// continueExpr finishes an expression whose first operand has already
// been parsed.
func (p *Parser) continueExpr(left ast.Expr) ast.Expr {
	left = p.binaryRHS(left, 1)
	if tok := p.peek(); tok.Type == scan.Operator && tok.Text == "|" {
		p.next()
		return &ast.Pipe{Base: base(tok), X: left, Subs: p.substitutions()}
	}
	return left
}

// substitutions parses the x:2, y:3 list after a pipe.
func (p *Parser) substitutions() []ast.Sub {
	var subs []ast.Sub
	for {
		name := p.expect(scan.Identifier, "pipe substitution")
		p.expect(scan.Colon, "pipe substitution")
		val := p.binaryRHS(p.operand(), 1)
		subs = append(subs, ast.Sub{Name: name.Text, Val: val})
		if p.peek().Type != scan.Comma {
			return subs
		}
		p.next()
	}
}

// binaryRHS climbs the precedence ladder, folding operators of at least
// the given precedence into left.
func (p *Parser) binaryRHS(left ast.Expr, min int) ast.Expr {
	for {
		tok := p.peek()
		if tok.Type != scan.Operator {
			return left
		}
		prec, ok := binPrec[tok.Text]
		if !ok || prec < min {
			return left
		}
		p.next()
		next := prec + 1
		if tok.Text == "^" {
			next = prec // right-associative
		}
		right := p.binaryRHS(p.operand(), next)
		left = &ast.Binary{Base: base(tok), Op: tok.Text, L: left, R: right}
	}
}

// operand parses a unary-prefixed postfix-suffixed primary. The operand
// of a unary operator extends through any power expression, so -x^2
// is -(x^2).
func (p *Parser) operand() ast.Expr {
	tok := p.peek()
	if tok.Type == scan.Operator {
		switch tok.Text {
		case "+", "-", "!":
			p.next()
			x := p.binaryRHS(p.operand(), powerPrec)
			return &ast.Unary{Base: base(tok), Op: tok.Text, X: x}
		}
		p.errorAt(tok, "unexpected operator %s", tok.Text)
	}
	return p.postfixTail(p.primary())
}

// postfixTail applies postfix method calls and index operations.
func (p *Parser) postfixTail(x ast.Expr) ast.Expr {
	for {
		switch p.peek().Type {
		case scan.Dot:
			dot := p.next()
			name := p.expect(scan.Identifier, "method call")
			p.expect(scan.LeftParen, "method call")
			args := p.argListRest()
			x = &ast.Method{Base: base(dot), Recv: x, Name: name.Text, Args: args}
		case scan.LeftBrack:
			tok := p.next()
			index, col := p.indexRest()
			x = &ast.Index{Base: base(tok), X: x, Index: index, Col: col}
		default:
			return x
		}
	}
}

// indexRest parses the contents of an index: expr optionally followed by
// the column marker semicolon, then the closing bracket.
func (p *Parser) indexRest() (index ast.Expr, col bool) {
	index = p.expression()
	if p.peek().Type == scan.Semicolon {
		p.next()
		col = true
	}
	p.expect(scan.RightBrack, "index")
	return index, col
}

// argListRest parses a comma-separated expression list up to the closing
// parenthesis, which it consumes. The opening parenthesis has been
// consumed.
func (p *Parser) argListRest() []ast.Expr {
	var args []ast.Expr
	if p.peek().Type == scan.RightParen {
		p.next()
		return args
	}
	for {
		args = append(args, p.expression())
		tok := p.next()
		if tok.Type == scan.RightParen {
			return args
		}
		if tok.Type != scan.Comma {
			p.errorAt(tok, "expected , or ) in argument list, found %s", tok)
		}
	}
}

func (p *Parser) primary() ast.Expr {
	tok := p.next()
	switch tok.Type {
	case scan.Number:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorAt(tok, "bad number %q", tok.Text)
		}
		return &ast.Num{Base: base(tok), Val: f}

	case scan.Imaginary:
		f, err := strconv.ParseFloat(strings.TrimSuffix(tok.Text, "i"), 64)
		if err != nil {
			p.errorAt(tok, "bad imaginary literal %q", tok.Text)
		}
		return &ast.Imag{Base: base(tok), Val: f}

	case scan.UnitNumber:
		return p.unitLit(tok)

	case scan.String:
		return &ast.Str{Base: base(tok), Text: tok.Text}

	case scan.Identifier:
		if tok.Text == "piecewise" && p.peek().Type == scan.LeftBrace {
			return p.piecewiseBody(tok)
		}
		if p.peek().Type == scan.LeftParen {
			p.next()
			args := p.argListRest()
			return &ast.Call{Base: base(tok), Name: tok.Text, Args: args}
		}
		return &ast.Ident{Base: base(tok), Name: tok.Text}

	case scan.LeftParen:
		x := p.expression()
		p.expect(scan.RightParen, "parenthesized expression")
		return x

	case scan.LeftBrack:
		return p.arrayLit(tok)
	}
	p.errorAt(tok, "unexpected %s", tok)
	panic("unreachable")
}

// unitLit splits a unit literal token like 3m^2 into its number, unit
// symbol, and exponent.
func (p *Parser) unitLit(tok scan.Token) ast.Expr {
	text := tok.Text
	exp := 1
	if at := strings.IndexByte(text, '^'); at >= 0 {
		e, err := strconv.Atoi(text[at+1:])
		if err != nil {
			p.errorAt(tok, "bad unit exponent in %q", tok.Text)
		}
		exp = e
		text = text[:at]
	}
	split := len(text)
	for split > 0 && !isDigitOrDot(text[split-1]) {
		split--
	}
	f, err := strconv.ParseFloat(text[:split], 64)
	if err != nil {
		p.errorAt(tok, "bad unit literal %q", tok.Text)
	}
	return &ast.UnitLit{Base: base(tok), Val: f, Sym: text[split:], Exp: exp}
}

func isDigitOrDot(c byte) bool {
	return c == '.' || '0' <= c && c <= '9'
}

// arrayLit parses an array or matrix literal. Commas separate elements
// within a row, semicolons separate rows; inconsistent row lengths are a
// parse error. The opening bracket has been consumed.
func (p *Parser) arrayLit(tok scan.Token) ast.Expr {
	rows := [][]ast.Expr{nil}
	sawSemi := false
	if p.peek().Type == scan.RightBrack {
		p.errorAt(tok, "empty array")
	}
	for {
		rows[len(rows)-1] = append(rows[len(rows)-1], p.expression())
		sep := p.next()
		switch sep.Type {
		case scan.Comma:
			continue
		case scan.Semicolon:
			sawSemi = true
			rows = append(rows, nil)
		case scan.RightBrack:
			width := len(rows[0])
			for _, r := range rows {
				if len(r) != width {
					p.errorAt(tok, "inconsistent row lengths in array")
				}
			}
			col := sawSemi && width == 1 && len(rows) > 1
			return &ast.Array{Base: base(tok), Rows: rows, Col: col}
		default:
			p.errorAt(sep, "expected , ; or ] in array, found %s", sep)
		}
	}
}
