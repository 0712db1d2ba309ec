// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cppgen translates functions marked @gen_cpp into standalone
// C++ source files. Each function becomes one .cpp file in the
// generation directory, written in terms of double (and int for
// parameters used as loop bounds).
package cppgen // import "madola.dev/madola/cppgen"

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/value"
)

// Generate writes <name>.cpp for the function into conf.GenDir() and
// returns the path. Constructs with no C++ counterpart fail the
// function with an error naming the construct; other pending functions
// are unaffected.
func Generate(conf *config.Config, fn *exec.Function) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if verr, ok := r.(value.Error); ok {
				err = fmt.Errorf("gen_cpp %s: %s", fn.Name, verr)
				return
			}
			panic(r)
		}
	}()
	g := &generator{fn: fn, intParams: loopBoundParams(fn)}
	src := g.function()
	path = filepath.Join(conf.GenDir(), fn.Name+".cpp")
	if err := os.WriteFile(path, []byte(src), 0o666); err != nil {
		return "", err
	}
	return path, nil
}

// loopBoundParams reports which parameters appear as for-loop bounds
// and therefore translate to int.
func loopBoundParams(fn *exec.Function) map[string]bool {
	ints := make(map[string]bool)
	isParam := make(map[string]bool)
	for _, p := range fn.Params {
		isParam[p] = true
	}
	var walk func(stmts []ast.Statement)
	mark := func(x ast.Expr) {
		if id, ok := x.(*ast.Ident); ok && isParam[id.Name] {
			ints[id.Name] = true
		}
	}
	walk = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *ast.For:
				mark(s.From)
				mark(s.To)
				walk(s.Body)
			case *ast.While:
				walk(s.Body)
			case *ast.If:
				walk(s.Then)
				walk(s.Else)
			}
		}
	}
	walk(fn.Body)
	return ints
}

type generator struct {
	fn        *exec.Function
	intParams map[string]bool
	declared  map[string]bool
	buf       strings.Builder
	indent    int
}

func (g *generator) fail(what string) {
	value.Errorf("cannot generate %s", what)
}

func (g *generator) printf(format string, args ...interface{}) {
	g.buf.WriteString(strings.Repeat("    ", g.indent))
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

func (g *generator) function() string {
	g.declared = make(map[string]bool)
	g.buf.WriteString("#include <cmath>\n\n")
	var params []string
	for _, p := range g.fn.Params {
		typ := "double"
		if g.intParams[p] {
			typ = "int"
		}
		params = append(params, typ+" "+p)
		g.declared[p] = true
	}
	g.printf("double %s(%s) {", g.fn.Name, strings.Join(params, ", "))
	g.indent++
	if g.fn.Piecewise != nil {
		g.piecewise(g.fn.Piecewise)
	} else {
		g.stmts(g.fn.Body)
	}
	g.printf("return 0;")
	g.indent--
	g.printf("}")
	return g.buf.String()
}

func (g *generator) piecewise(p *ast.Piecewise) {
	for _, c := range p.Cases {
		if c.Cond == nil {
			g.printf("return %s;", g.expr(c.Value))
			return
		}
		g.printf("if (%s) {", g.expr(c.Cond))
		g.indent++
		g.printf("return %s;", g.expr(c.Value))
		g.indent--
		g.printf("}")
	}
}

func (g *generator) stmts(list []ast.Statement) {
	for _, s := range list {
		g.stmt(s)
	}
}

func (g *generator) stmt(s ast.Statement) {
	switch s := s.(type) {
	case *ast.Assign:
		if g.declared[s.Name] {
			g.printf("%s = %s;", s.Name, g.expr(s.X))
		} else {
			g.declared[s.Name] = true
			g.printf("double %s = %s;", s.Name, g.expr(s.X))
		}

	case *ast.Return:
		if s.X == nil {
			g.printf("return 0;")
		} else {
			g.printf("return %s;", g.expr(s.X))
		}

	case *ast.Break:
		g.printf("break;")

	case *ast.If:
		g.printf("if (%s) {", g.expr(s.Cond))
		g.indent++
		g.stmts(s.Then)
		g.indent--
		if len(s.Else) > 0 {
			g.printf("} else {")
			g.indent++
			g.stmts(s.Else)
			g.indent--
		}
		g.printf("}")

	case *ast.While:
		g.printf("while (%s) {", g.expr(s.Cond))
		g.indent++
		g.stmts(s.Body)
		g.indent--
		g.printf("}")

	case *ast.For:
		// Range bounds are inclusive.
		g.printf("for (int %s = %s; %s <= %s; ++%s) {",
			s.Var, g.expr(s.From), s.Var, g.expr(s.To), s.Var)
		wasDeclared := g.declared[s.Var]
		g.declared[s.Var] = true
		g.indent++
		g.stmts(s.Body)
		g.indent--
		g.printf("}")
		g.declared[s.Var] = wasDeclared

	case *ast.Skip:
		// Nothing to emit; the evaluator already honored it.

	default:
		g.fail(fmt.Sprintf("%T statement", s))
	}
}

// expr renders an expression as fully parenthesized C++.
func (g *generator) expr(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Num:
		return strconv.FormatFloat(x.Val, 'g', -1, 64)

	case *ast.Ident:
		if !g.declared[x.Name] {
			g.fail(fmt.Sprintf("reference to %s, which is not a local", x.Name))
		}
		return x.Name

	case *ast.Binary:
		l, r := g.expr(x.L), g.expr(x.R)
		switch x.Op {
		case "^":
			return fmt.Sprintf("std::pow(%s, %s)", l, r)
		case "%":
			return fmt.Sprintf("std::fmod(%s, %s)", l, r)
		}
		return fmt.Sprintf("(%s %s %s)", l, x.Op, r)

	case *ast.Unary:
		return fmt.Sprintf("(%s%s)", x.Op, g.expr(x.X))

	case *ast.Call:
		return g.call(x.Name, x.Args)

	case *ast.Method:
		if id, ok := x.Recv.(*ast.Ident); ok && id.Name == "math" {
			return g.mathCall(x.Name, x.Args)
		}
		g.fail("method call")
	}
	g.fail(fmt.Sprintf("%T expression", x))
	panic("unreachable")
}

func (g *generator) args(list []ast.Expr, n int, name string) []string {
	if len(list) != n {
		g.fail(fmt.Sprintf("call to %s with %d arguments", name, len(list)))
	}
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = g.expr(a)
	}
	return out
}

func (g *generator) call(name string, list []ast.Expr) string {
	switch name {
	case "sqrt", "sin", "cos", "tan":
		return fmt.Sprintf("std::%s(%s)", name, g.args(list, 1, name)[0])
	}
	g.fail(fmt.Sprintf("call to %s", name))
	panic("unreachable")
}

func (g *generator) mathCall(name string, list []ast.Expr) string {
	switch name {
	case "sin", "cos", "tan", "sqrt", "abs", "exp", "floor", "ceil":
		fn := name
		if name == "abs" {
			fn = "fabs"
		}
		return fmt.Sprintf("std::%s(%s)", fn, g.args(list, 1, "math."+name)[0])
	case "sqr":
		a := g.args(list, 1, "math.sqr")[0]
		return fmt.Sprintf("(%s * %s)", a, a)
	case "mod":
		a := g.args(list, 2, "math.mod")
		return fmt.Sprintf("std::fmod(%s, %s)", a[0], a[1])
	case "max", "min":
		a := g.args(list, 2, "math."+name)
		return fmt.Sprintf("std::f%s(%s, %s)", name, a[0], a[1])
	}
	g.fail("call to math." + name)
	panic("unreachable")
}
