// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"strings"
	"testing"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/scan"
)

var testConf config.Config

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := NewParser(&testConf, scan.New(&testConf, "test", src))
	prog, err := p.Program()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func parseError(t *testing.T, src, want string) {
	t.Helper()
	p := NewParser(&testConf, scan.New(&testConf, "test", src))
	_, err := p.Program()
	if err == nil {
		t.Fatalf("no error parsing %q", src)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention %q", err, want)
	}
}

func TestAssignment(t *testing.T) {
	prog := parseProgram(t, "x := 3 + 4 * 2;")
	if len(prog.Stmts) != 1 {
		t.Fatalf("got %d statements", len(prog.Stmts))
	}
	a, ok := prog.Stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("got %T, want Assign", prog.Stmts[0])
	}
	// * binds tighter than +.
	b := a.X.(*ast.Binary)
	if b.Op != "+" {
		t.Fatalf("top operator %q, want +", b.Op)
	}
	if r := b.R.(*ast.Binary); r.Op != "*" {
		t.Fatalf("right operator %q, want *", r.Op)
	}
}

func TestPowerRightAssociative(t *testing.T) {
	prog := parseProgram(t, "x := 2 ^ 3 ^ 2;")
	b := prog.Stmts[0].(*ast.Assign).X.(*ast.Binary)
	if b.Op != "^" {
		t.Fatalf("top operator %q", b.Op)
	}
	if _, ok := b.L.(*ast.Num); !ok {
		t.Fatal("left of top ^ should be a number")
	}
	if r := b.R.(*ast.Binary); r.Op != "^" {
		t.Fatal("right of top ^ should be another power")
	}
}

func TestUnaryBindsThroughPower(t *testing.T) {
	// -x^2 parses as -(x^2).
	prog := parseProgram(t, "y := -x ^ 2;")
	u := prog.Stmts[0].(*ast.Assign).X.(*ast.Unary)
	if u.Op != "-" {
		t.Fatalf("unary %q", u.Op)
	}
	if b := u.X.(*ast.Binary); b.Op != "^" {
		t.Fatalf("operand of unary is %q, want ^", b.Op)
	}
}

func TestFuncDecl(t *testing.T) {
	prog := parseProgram(t, "@gen_cpp fn f(a, b) { return a + b; }")
	fn := prog.Stmts[0].(*ast.FuncDecl)
	if fn.Name != "f" || len(fn.Params) != 2 {
		t.Fatalf("fn %s with %d params", fn.Name, len(fn.Params))
	}
	if !fn.HasDecorator("gen_cpp") {
		t.Fatal("missing gen_cpp decorator")
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body has %d statements", len(fn.Body))
	}
}

func TestPiecewiseDecl(t *testing.T) {
	prog := parseProgram(t, "sgn(x) := piecewise { (1, x > 0), (-1, x < 0), (0, otherwise) };")
	pw := prog.Stmts[0].(*ast.PiecewiseDecl)
	if pw.Name != "sgn" || len(pw.Params) != 1 {
		t.Fatalf("got %s with %d params", pw.Name, len(pw.Params))
	}
	if len(pw.Cases.Cases) != 3 {
		t.Fatalf("got %d cases", len(pw.Cases.Cases))
	}
	if pw.Cases.Cases[2].Cond != nil {
		t.Fatal("last case should be otherwise")
	}
}

func TestForRange(t *testing.T) {
	prog := parseProgram(t, "for i in 1...10 { s := s + i; }")
	f := prog.Stmts[0].(*ast.For)
	if f.Var != "i" {
		t.Fatalf("loop variable %q", f.Var)
	}
	if n := f.From.(*ast.Num); n.Val != 1 {
		t.Fatalf("from %v", n.Val)
	}
	if n := f.To.(*ast.Num); n.Val != 10 {
		t.Fatalf("to %v", n.Val)
	}
}

func TestArrayAssignAndIndex(t *testing.T) {
	prog := parseProgram(t, "a[0] := 5; print(a[0]); b := m[1;];")
	if _, ok := prog.Stmts[0].(*ast.ArrayAssign); !ok {
		t.Fatalf("got %T, want ArrayAssign", prog.Stmts[0])
	}
	pr := prog.Stmts[1].(*ast.Print)
	if _, ok := pr.X.(*ast.Index); !ok {
		t.Fatalf("print argument is %T, want Index", pr.X)
	}
	ix := prog.Stmts[2].(*ast.Assign).X.(*ast.Index)
	if !ix.Col {
		t.Fatal("m[1;] should set the column marker")
	}
}

func TestPipe(t *testing.T) {
	prog := parseProgram(t, "print(y | x:2, z:3);")
	pipe := prog.Stmts[0].(*ast.Print).X.(*ast.Pipe)
	if len(pipe.Subs) != 2 {
		t.Fatalf("got %d substitutions", len(pipe.Subs))
	}
	if pipe.Subs[0].Name != "x" || pipe.Subs[1].Name != "z" {
		t.Fatalf("substitution names %q, %q", pipe.Subs[0].Name, pipe.Subs[1].Name)
	}
}

func TestImports(t *testing.T) {
	prog := parseProgram(t, "import geometry; from tools import area, vol as volume;")
	plain := prog.Stmts[0].(*ast.Import)
	if plain.Module != "geometry" || len(plain.Items) != 0 {
		t.Fatalf("plain import parsed as %+v", plain)
	}
	from := prog.Stmts[1].(*ast.Import)
	if from.Module != "tools" || len(from.Items) != 2 {
		t.Fatalf("from import parsed as %+v", from)
	}
	if from.Items[1].Bound() != "volume" {
		t.Fatalf("alias bound to %q", from.Items[1].Bound())
	}
}

func TestHeadingAndParagraph(t *testing.T) {
	prog := parseProgram(t, "@h2[centered]{Beam Results} @p {All loads in kips.}")
	h := prog.Stmts[0].(*ast.Heading)
	if h.Level != 2 || h.Style != "centered" || h.Text != "Beam Results" {
		t.Fatalf("heading %+v", h)
	}
	p := prog.Stmts[1].(*ast.Paragraph)
	if p.Text != "All loads in kips." {
		t.Fatalf("paragraph %q", p.Text)
	}
}

func TestVersionAndSkip(t *testing.T) {
	prog := parseProgram(t, "@version 0.01\n@skip\nx := 1;")
	v := prog.Stmts[0].(*ast.Version)
	if v.Text != "0.01" {
		t.Fatalf("version %q", v.Text)
	}
	if _, ok := prog.Stmts[1].(*ast.Skip); !ok {
		t.Fatalf("got %T, want Skip", prog.Stmts[1])
	}
}

func TestLayoutDecorator(t *testing.T) {
	prog := parseProgram(t, "@array 2 x 3 fn grid() { return 0; }")
	fn := prog.Stmts[0].(*ast.FuncDecl)
	if len(fn.Decorators) != 1 {
		t.Fatalf("got %d decorators", len(fn.Decorators))
	}
	d := fn.Decorators[0]
	if d.Name != "layout" || d.Rows != 2 || d.Cols != 3 {
		t.Fatalf("decorator %+v", d)
	}
}

func TestMergeDecorator(t *testing.T) {
	prog := parseProgram(t, "@merge2[center] fn f() { return 0; }")
	d := prog.Stmts[0].(*ast.FuncDecl).Decorators[0]
	if d.Name != "merge" || d.Param != 2 || d.Style != "center" {
		t.Fatalf("decorator %+v", d)
	}
}

func TestUnitLiteral(t *testing.T) {
	prog := parseProgram(t, "a := 3m^2;")
	u := prog.Stmts[0].(*ast.Assign).X.(*ast.UnitLit)
	if u.Val != 3 || u.Sym != "m" || u.Exp != 2 {
		t.Fatalf("unit literal %+v", u)
	}
}

func TestMethodCall(t *testing.T) {
	prog := parseProgram(t, "d := m.det();")
	meth := prog.Stmts[0].(*ast.Assign).X.(*ast.Method)
	if meth.Name != "det" || len(meth.Args) != 0 {
		t.Fatalf("method %+v", meth)
	}
}

func TestErrors(t *testing.T) {
	parseError(t, "x := ;", "unexpected")
	parseError(t, "fn f( { }", "parameter list")
	parseError(t, "f(x) := piecewise { };", "piecewise with no cases")
	parseError(t, "a := [1, 2; 3];", "inconsistent row lengths")
	parseError(t, "a := [];", "empty array")
	parseError(t, "while (x { }", "while condition")
}
