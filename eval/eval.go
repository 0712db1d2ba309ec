// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eval implements the tree-walking interpreter. Statements
// execute in source order against an exec.Context; errors unwind as
// value.Error panics and are recovered by the driver, one top-level
// statement at a time.
package eval // import "madola.dev/madola/eval"

import (
	"fmt"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/value"
)

// Importer resolves import statements. The run driver wires in the
// module resolver; a nil Importer rejects imports.
type Importer interface {
	Import(ctx *exec.Context, imp *ast.Import)
}

// SymbolicEngine is the external symbolic-differentiation capability.
// The default, nil, reports the capability as unavailable.
type SymbolicEngine interface {
	Differentiate(expr, wrt string) (string, error)
}

// Evaluator executes AST nodes against a Context.
type Evaluator struct {
	conf *config.Config
	ctx  *exec.Context

	Modules  Importer
	Symbolic SymbolicEngine
}

// New returns an evaluator for the context.
func New(conf *config.Config, ctx *exec.Context) *Evaluator {
	return &Evaluator{conf: conf, ctx: ctx}
}

func (e *Evaluator) Context() *exec.Context {
	return e.ctx
}

// control is the statement flow result: normal completion, break out of
// the nearest loop, or return from the current function.
type control int

const (
	ctrlNormal control = iota
	ctrlBreak
	ctrlReturn
)

// Statement executes one top-level statement. Errors panic with
// value.Error; the caller recovers them.
func (e *Evaluator) Statement(s ast.Statement) {
	ctrl, _ := e.exec(s)
	switch ctrl {
	case ctrlBreak:
		e.errorAt(s, "break outside loop")
	case ctrlReturn:
		e.errorAt(s, "return outside function")
	}
}

// errorAt reports an execution error at the node's source position.
func (e *Evaluator) errorAt(n ast.Node, format string, args ...interface{}) {
	value.Errorf("%s: %s", n.Pos(), fmt.Sprintf(format, args...))
}

func (e *Evaluator) exec(s ast.Statement) (control, value.Value) {
	if e.conf.Debug("eval") {
		fmt.Fprintf(e.conf.Output(), "eval %T at %s\n", s, s.Pos())
	}
	switch s := s.(type) {
	case *ast.Assign:
		e.ctx.Assign(s.Name, e.expr(s.X))

	case *ast.ArrayAssign:
		e.arrayAssign(s)

	case *ast.Print:
		v := e.expr(s.X)
		if v == nil {
			e.errorAt(s, "print of no value")
		}
		fmt.Fprintln(e.conf.Output(), v.Sprint())

	case *ast.ExprStmt:
		e.expr(s.X)

	case *ast.FuncDecl:
		e.ctx.Define(&exec.Function{
			Name:       s.Name,
			Params:     s.Params,
			Body:       s.Body,
			Decorators: s.Decorators,
		})

	case *ast.PiecewiseDecl:
		e.ctx.Define(&exec.Function{
			Name:      s.Name,
			Params:    s.Params,
			Piecewise: s.Cases,
		})

	case *ast.Return:
		var v value.Value
		if s.X != nil {
			v = e.expr(s.X)
		}
		return ctrlReturn, v

	case *ast.Break:
		return ctrlBreak, nil

	case *ast.For:
		return e.forLoop(s)

	case *ast.While:
		for value.Truth(e.expr(s.Cond)) {
			ctrl, v := e.execList(s.Body)
			if ctrl == ctrlReturn {
				return ctrl, v
			}
			if ctrl == ctrlBreak {
				break
			}
		}

	case *ast.If:
		body := s.Then
		if !value.Truth(e.expr(s.Cond)) {
			body = s.Else
		}
		return e.execList(body)

	case *ast.Import:
		if e.Modules == nil {
			e.errorAt(s, "cannot import %s: no module resolver", s.Module)
		}
		e.Modules.Import(e.ctx, s)

	case *ast.Version:
		if s.Text != config.LanguageVersion {
			e.errorAt(s, "unsupported language version %s, want %s", s.Text, config.LanguageVersion)
		}

	case *ast.Heading, *ast.Paragraph:
		// Documentation text; rendered by the driver, not executed.

	case *ast.Skip:
		// Effective only inside a statement list; see execList.

	default:
		e.errorAt(s, "cannot execute %T", s)
	}
	return ctrlNormal, nil
}

// execList runs a statement list, honoring @skip markers: a skip
// suppresses the single statement that follows it.
func (e *Evaluator) execList(stmts []ast.Statement) (control, value.Value) {
	skip := false
	for _, s := range stmts {
		if _, ok := s.(*ast.Skip); ok {
			skip = true
			continue
		}
		if skip {
			skip = false
			continue
		}
		ctrl, v := e.exec(s)
		if ctrl != ctrlNormal {
			return ctrl, v
		}
	}
	return ctrlNormal, nil
}

// forLoop iterates an inclusive integer range, saving and restoring any
// existing binding of the loop variable.
func (e *Evaluator) forLoop(s *ast.For) (control, value.Value) {
	from := e.intAt(s, e.expr(s.From), "range start")
	to := e.intAt(s, e.expr(s.To), "range end")
	saved := e.ctx.Lookup(s.Var)
	defer func() {
		if saved != nil {
			e.ctx.AssignLocal(s.Var, saved)
		} else {
			e.ctx.UnassignLocal(s.Var)
		}
	}()
	for i := from; i <= to; i++ {
		e.ctx.AssignLocal(s.Var, value.Num(float64(i)))
		ctrl, v := e.execList(s.Body)
		if ctrl == ctrlReturn {
			return ctrl, v
		}
		if ctrl == ctrlBreak {
			break
		}
	}
	return ctrlNormal, nil
}

// intAt coerces a value to an integer for loop bounds and indexes.
func (e *Evaluator) intAt(n ast.Node, v value.Value, what string) int {
	num, ok := v.(value.Number)
	if !ok {
		e.errorAt(n, "%s is %s, not a number", what, value.TypeName(v))
	}
	return int(num.Val)
}

// arrayAssign stores through an index: a[i] := e. Assigning one past the
// end of a vector appends, so arrays can be grown element by element.
func (e *Evaluator) arrayAssign(s *ast.ArrayAssign) {
	rhs := e.expr(s.X)
	num, ok := rhs.(value.Number)
	if !ok {
		e.errorAt(s, "array element must be a number, have %s", value.TypeName(rhs))
	}
	if len(num.Units) > 0 {
		e.errorAt(s, "array element cannot carry units")
	}
	idx := e.intAt(s, e.expr(s.Index), "index")
	if idx < 0 {
		e.errorAt(s, "index %d out of bounds", idx)
	}

	cur := e.ctx.Lookup(s.Name)
	switch a := cur.(type) {
	case nil:
		// First assignment creates the array.
		v := value.Vector{Elems: make([]float64, idx+1), Col: s.Col}
		v.Elems[idx] = num.Val
		e.ctx.Assign(s.Name, v)
	case value.Vector:
		if idx == len(a.Elems) {
			a.Elems = append(a.Elems, num.Val)
			e.ctx.Assign(s.Name, a)
			return
		}
		a.Set(idx, num.Val)
	default:
		e.errorAt(s, "%s is %s, not an array", s.Name, value.TypeName(cur))
	}
}
