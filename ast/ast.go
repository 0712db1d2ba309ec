// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the typed syntax tree for madola programs.
// Nodes are built once by the parser and never mutated; the evaluator
// and both code generators share the same tree.
package ast // import "madola.dev/madola/ast"

import "fmt"

// Pos is a source position, 1-based.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is the interface held by all AST nodes.
type Node interface {
	Pos() Pos
}

// Statement is implemented by all statement nodes.
type Statement interface {
	Node
	isStatement()
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	isExpr()
}

// Base carries the source position shared by all nodes.
type Base struct {
	At Pos
}

func (b Base) Pos() Pos { return b.At }

// Program is a parsed source file.
type Program struct {
	Name  string // input name, for error reports
	Stmts []Statement
}

// Decorator is one @name annotation attached to a statement or function.
// Layout decorators carry Rows/Cols; parameterized decorators like
// @merge2[center] carry Param and Style.
type Decorator struct {
	Name  string
	Param int
	Style string
	Rows  int
	Cols  int
}

// IsLayout reports whether d is a layout (grid shape) decorator.
func (d Decorator) IsLayout() bool { return d.Rows > 0 && d.Cols > 0 }

// Statements.

type Assign struct {
	Base
	Name string
	X    Expr
}

// ArrayAssign is assignment through an index: a[i] := e. Col records the
// column-vector marker form a[i;].
type ArrayAssign struct {
	Base
	Name  string
	Index Expr
	Col   bool
	X     Expr
}

type Print struct {
	Base
	X Expr
}

type ExprStmt struct {
	Base
	X Expr
}

type FuncDecl struct {
	Base
	Name       string
	Params     []string
	Body       []Statement
	Decorators []Decorator
}

// PiecewiseDecl is a function defined by cases: f(x) := piecewise { ... };
type PiecewiseDecl struct {
	Base
	Name   string
	Params []string
	Cases  *Piecewise
}

type Return struct {
	Base
	X Expr // may be nil
}

type Break struct {
	Base
}

type For struct {
	Base
	Var  string
	From Expr
	To   Expr // inclusive upper bound
	Body []Statement
}

type While struct {
	Base
	Cond Expr
	Body []Statement
}

type If struct {
	Base
	Cond Expr
	Then []Statement
	Else []Statement
}

// ImportItem is one imported name, optionally aliased.
type ImportItem struct {
	Name  string
	Alias string
}

func (it ImportItem) Bound() string {
	if it.Alias != "" {
		return it.Alias
	}
	return it.Name
}

// Import covers both forms: "import X;" and "from X import a, b as c;".
type Import struct {
	Base
	Module string
	Items  []ImportItem
}

// Heading is documentation text: @h1[style]{...} through @h4.
type Heading struct {
	Base
	Level int
	Style string
	Text  string
}

// Paragraph is documentation text: @p[style]{...}.
type Paragraph struct {
	Base
	Style string
	Text  string
}

// Version is the @version directive.
type Version struct {
	Base
	Text string
}

// Skip marks the next statement to be skipped.
type Skip struct {
	Base
}

func (*Assign) isStatement()        {}
func (*ArrayAssign) isStatement()   {}
func (*Print) isStatement()         {}
func (*ExprStmt) isStatement()      {}
func (*FuncDecl) isStatement()      {}
func (*PiecewiseDecl) isStatement() {}
func (*Return) isStatement()        {}
func (*Break) isStatement()         {}
func (*For) isStatement()           {}
func (*While) isStatement()         {}
func (*If) isStatement()            {}
func (*Import) isStatement()        {}
func (*Heading) isStatement()       {}
func (*Paragraph) isStatement()     {}
func (*Version) isStatement()       {}
func (*Skip) isStatement()          {}

// Expressions.

type Num struct {
	Base
	Val float64
}

type Str struct {
	Base
	Text string
}

// Imag is an imaginary literal such as 4i.
type Imag struct {
	Base
	Val float64
}

// UnitLit is a number with an adjacent unit symbol: 5kg, 3m^2.
type UnitLit struct {
	Base
	Val float64
	Sym string
	Exp int
}

type Ident struct {
	Base
	Name string
}

// Array is an array or matrix literal. Rows holds one slice per row;
// a single row is a row vector, single-element rows form a column vector.
type Array struct {
	Base
	Rows [][]Expr
	Col  bool // written with semicolons only: column vector
}

// Index is a subscripted read: a[i]. Col records the a[i;] form.
type Index struct {
	Base
	X     Expr
	Index Expr
	Col   bool
}

type Binary struct {
	Base
	Op string
	L  Expr
	R  Expr
}

type Unary struct {
	Base
	Op string
	X  Expr
}

type Call struct {
	Base
	Name string
	Args []Expr
}

// Method is a dotted call: recv.name(args). The receiver may be the
// math namespace identifier or any expression (matrix methods).
type Method struct {
	Base
	Recv Expr
	Name string
	Args []Expr
}

// Case is one (value, condition) piecewise case. A nil Cond is the
// otherwise case.
type Case struct {
	Value Expr
	Cond  Expr
}

type Piecewise struct {
	Base
	Cases []Case
}

// Sub is one name:value substitution in a pipe expression.
type Sub struct {
	Name string
	Val  Expr
}

// Pipe is expr | x:2, y:3: evaluate expr with the named substitutions
// bound temporarily.
type Pipe struct {
	Base
	X    Expr
	Subs []Sub
}

func (*Num) isExpr()       {}
func (*Str) isExpr()       {}
func (*Imag) isExpr()      {}
func (*UnitLit) isExpr()   {}
func (*Ident) isExpr()     {}
func (*Array) isExpr()     {}
func (*Index) isExpr()     {}
func (*Binary) isExpr()    {}
func (*Unary) isExpr()     {}
func (*Call) isExpr()      {}
func (*Method) isExpr()    {}
func (*Piecewise) isExpr() {}
func (*Pipe) isExpr()      {}

// HasDecorator reports whether the declaration carries the named decorator.
func (f *FuncDecl) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		if d.Name == name {
			return true
		}
	}
	return false
}
