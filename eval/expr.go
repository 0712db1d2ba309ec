// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"madola.dev/madola/ast"
	"madola.dev/madola/exec"
	"madola.dev/madola/value"
)

// expr evaluates an expression to a value. Most type errors surface in
// the value package; eval handles name resolution, calls, and control
// over evaluation order.
func (e *Evaluator) expr(x ast.Expr) value.Value {
	switch x := x.(type) {
	case *ast.Num:
		return value.Num(x.Val)

	case *ast.Str:
		return value.String(x.Text)

	case *ast.Imag:
		return value.Complex{Im: x.Val}

	case *ast.UnitLit:
		return value.Number{Val: x.Val, Units: value.MakeUnits(x.Sym, x.Exp)}

	case *ast.Ident:
		v := e.ctx.Lookup(x.Name)
		if v == nil {
			e.errorAt(x, "undefined variable %q", x.Name)
		}
		return v

	case *ast.Array:
		return e.arrayLit(x)

	case *ast.Index:
		return e.index(x)

	case *ast.Binary:
		// Logical operators short-circuit; everything else is strict.
		switch x.Op {
		case "&&":
			if !value.Truth(e.expr(x.L)) {
				return value.Bool(false)
			}
			return value.Bool(value.Truth(e.expr(x.R)))
		case "||":
			if value.Truth(e.expr(x.L)) {
				return value.Bool(true)
			}
			return value.Bool(value.Truth(e.expr(x.R)))
		}
		return value.Binary(x.Op, e.expr(x.L), e.expr(x.R))

	case *ast.Unary:
		return value.Unary(x.Op, e.expr(x.X))

	case *ast.Call:
		return e.call(x)

	case *ast.Method:
		return e.method(x)

	case *ast.Piecewise:
		return e.piecewise(x)

	case *ast.Pipe:
		return e.pipe(x)

	default:
		e.errorAt(x, "cannot evaluate %T", x)
	}
	panic("unreachable")
}

// arrayLit builds a vector or matrix from a literal. One row of numbers
// yields a row vector, a column of numbers a column vector, and a
// column of equal-length row vectors a matrix, which is how the nested
// form [[1, 2]; [3, 4]] arrives from the parser.
func (e *Evaluator) arrayLit(x *ast.Array) value.Value {
	vals := make([][]value.Value, len(x.Rows))
	for i, r := range x.Rows {
		vals[i] = make([]value.Value, len(r))
		for j, el := range r {
			vals[i][j] = e.expr(el)
		}
	}
	num := func(i, j int) float64 {
		n, ok := vals[i][j].(value.Number)
		if !ok {
			e.errorAt(x.Rows[i][j], "array element must be a number, have %s", value.TypeName(vals[i][j]))
		}
		if len(n.Units) > 0 {
			e.errorAt(x.Rows[i][j], "array element cannot carry units")
		}
		return n.Val
	}

	// A stack of nested rows builds a matrix.
	if len(x.Rows[0]) == 1 {
		if vec, nested := vals[0][0].(value.Vector); nested {
			cols := len(vec.Elems)
			data := append([]float64(nil), vec.Elems...)
			for i := 1; i < len(vals); i++ {
				row, ok := vals[i][0].(value.Vector)
				if !ok {
					e.errorAt(x.Rows[i][0], "matrix rows must all be arrays")
				}
				if len(row.Elems) != cols {
					e.errorAt(x.Rows[i][0], "matrix rows differ in length")
				}
				data = append(data, row.Elems...)
			}
			return value.NewMatrix(len(vals), cols, data)
		}
	}
	if len(x.Rows) == 1 {
		row := make([]float64, len(vals[0]))
		for j := range vals[0] {
			row[j] = num(0, j)
		}
		return value.Vector{Elems: row}
	}
	if x.Col {
		col := make([]float64, len(vals))
		for i := range vals {
			col[i] = num(i, 0)
		}
		return value.Vector{Elems: col, Col: true}
	}
	rows, cols := len(vals), len(vals[0])
	data := make([]float64, 0, rows*cols)
	for i := range vals {
		for j := range vals[i] {
			data = append(data, num(i, j))
		}
	}
	return value.NewMatrix(rows, cols, data)
}

// index evaluates a[i]. On a vector it selects an element; on a matrix
// it selects row i, or column i when the marker form a[i;] is used.
func (e *Evaluator) index(x *ast.Index) value.Value {
	recv := e.expr(x.X)
	i := e.intAt(x, e.expr(x.Index), "index")
	switch recv := recv.(type) {
	case value.Vector:
		return recv.At(i)
	case *value.Matrix:
		if x.Col {
			if i < 0 || i >= recv.Cols() {
				e.errorAt(x, "column index %d out of range for %dx%d matrix", i, recv.Rows(), recv.Cols())
			}
			col := make([]float64, recv.Rows())
			for r := range col {
				col[r] = recv.At(r, i)
			}
			return value.Vector{Elems: col, Col: true}
		}
		if i < 0 || i >= recv.Rows() {
			e.errorAt(x, "row index %d out of range for %dx%d matrix", i, recv.Rows(), recv.Cols())
		}
		row := make([]float64, recv.Cols())
		for c := range row {
			row[c] = recv.At(i, c)
		}
		return value.Vector{Elems: row}
	}
	e.errorAt(x, "cannot index %s", value.TypeName(recv))
	panic("unreachable")
}

// piecewise evaluates the first case whose condition holds; a nil
// condition is the otherwise arm.
func (e *Evaluator) piecewise(x *ast.Piecewise) value.Value {
	for _, c := range x.Cases {
		if c.Cond == nil || value.Truth(e.expr(c.Cond)) {
			return e.expr(c.Value)
		}
	}
	e.errorAt(x, "no piecewise case matched and no otherwise given")
	panic("unreachable")
}

// pipe evaluates the left expression with temporary variable
// substitutions in effect, restoring prior bindings afterward.
func (e *Evaluator) pipe(x *ast.Pipe) value.Value {
	type saved struct {
		name string
		val  value.Value // nil means previously unbound
	}
	old := make([]saved, 0, len(x.Subs))
	for _, s := range x.Subs {
		old = append(old, saved{s.Name, e.ctx.Lookup(s.Name)})
		e.ctx.AssignLocal(s.Name, e.expr(s.Val))
	}
	defer func() {
		for i := len(old) - 1; i >= 0; i-- {
			if old[i].val != nil {
				e.ctx.AssignLocal(old[i].name, old[i].val)
			} else {
				e.ctx.UnassignLocal(old[i].name)
			}
		}
	}()
	return e.expr(x.X)
}

// call dispatches a named call: builtins first, then user-defined
// functions, then module externals.
func (e *Evaluator) call(x *ast.Call) value.Value {
	if fn := builtins[x.Name]; fn != nil {
		return fn(e, x)
	}
	if fn := e.ctx.Func(x.Name); fn != nil {
		return e.callFunction(x, fn)
	}
	if ext := e.ctx.Externals[x.Name]; ext != nil {
		args := make([]value.Value, len(x.Args))
		for i, a := range x.Args {
			args[i] = e.expr(a)
		}
		return ext(args)
	}
	e.errorAt(x, "undefined function %q", x.Name)
	panic("unreachable")
}

// callFunction invokes a user-defined function in a fresh frame.
func (e *Evaluator) callFunction(x *ast.Call, fn *exec.Function) value.Value {
	if len(x.Args) != len(fn.Params) {
		e.errorAt(x, "%s takes %d arguments, have %d", fn.Name, len(fn.Params), len(x.Args))
	}
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = e.expr(a)
	}
	e.ctx.Push()
	defer e.ctx.Pop()
	for i, p := range fn.Params {
		e.ctx.AssignLocal(p, args[i])
	}
	if fn.Piecewise != nil {
		return e.piecewise(fn.Piecewise)
	}
	ctrl, v := e.execList(fn.Body)
	if ctrl == ctrlBreak {
		e.errorAt(x, "break outside loop in %s", fn.Name)
	}
	// Falling off the end yields no value.
	return v
}
