// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"math"

	"madola.dev/madola/ast"
	"madola.dev/madola/value"
)

// builtinFn receives the unevaluated call so that builtins like table
// and summation can inspect argument syntax.
type builtinFn func(e *Evaluator, x *ast.Call) value.Value

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"sqrt":     mathBuiltin(math.Sqrt),
		"sin":      mathBuiltin(math.Sin),
		"cos":      mathBuiltin(math.Cos),
		"tan":      mathBuiltin(math.Tan),
		"type":     typeBuiltin,
		"graph":    graphBuiltin,
		"graph_3d": graph3DBuiltin,
		"table":    tableBuiltin,
		"diff":     diffBuiltin,
	}
}

// numArg evaluates an argument that must be a plain number.
func (e *Evaluator) numArg(x ast.Expr) float64 {
	v := e.expr(x)
	n, ok := v.(value.Number)
	if !ok {
		e.errorAt(x, "argument must be a number, have %s", value.TypeName(v))
	}
	if len(n.Units) > 0 {
		e.errorAt(x, "argument cannot carry units")
	}
	return n.Val
}

func (e *Evaluator) arity(x *ast.Call, n int) {
	if len(x.Args) != n {
		e.errorAt(x, "%s takes %d arguments, have %d", x.Name, n, len(x.Args))
	}
}

func mathBuiltin(fn func(float64) float64) builtinFn {
	return func(e *Evaluator, x *ast.Call) value.Value {
		e.arity(x, 1)
		return value.Num(fn(e.numArg(x.Args[0])))
	}
}

func typeBuiltin(e *Evaluator, x *ast.Call) value.Value {
	e.arity(x, 1)
	return value.String(value.TypeName(e.expr(x.Args[0])))
}

// vecArg evaluates an argument that must be a vector.
func (e *Evaluator) vecArg(x ast.Expr) value.Vector {
	v := e.expr(x)
	vec, ok := v.(value.Vector)
	if !ok {
		e.errorAt(x, "argument must be an array, have %s", value.TypeName(v))
	}
	return vec
}

func graphBuiltin(e *Evaluator, x *ast.Call) value.Value {
	if len(x.Args) < 2 || len(x.Args) > 3 {
		e.errorAt(x, "graph takes (x, y) or (x, y, title), have %d arguments", len(x.Args))
	}
	xs := e.vecArg(x.Args[0])
	ys := e.vecArg(x.Args[1])
	if len(xs.Elems) != len(ys.Elems) {
		e.errorAt(x, "graph arrays differ in length, %d vs %d", len(xs.Elems), len(ys.Elems))
	}
	g := &value.Graph{X: xs.Elems, Y: ys.Elems}
	if len(x.Args) == 3 {
		t, ok := e.expr(x.Args[2]).(value.String)
		if !ok {
			e.errorAt(x.Args[2], "graph title must be a string")
		}
		g.Title = string(t)
	}
	return g
}

func graph3DBuiltin(e *Evaluator, x *ast.Call) value.Value {
	if len(x.Args) < 1 {
		e.errorAt(x, "graph_3d needs a title")
	}
	t, ok := e.expr(x.Args[0]).(value.String)
	if !ok {
		e.errorAt(x.Args[0], "graph_3d title must be a string")
	}
	g := &value.Graph{Title: string(t), Is3D: true}
	for _, a := range x.Args[1:] {
		g.Dims = append(g.Dims, e.numArg(a))
	}
	return g
}

// tableBuiltin builds a table. The first argument must be an array
// literal naming the headers: string elements give the header text,
// identifier elements both name a header and, when no further arguments
// follow, supply that variable's array as the column.
func tableBuiltin(e *Evaluator, x *ast.Call) value.Value {
	if len(x.Args) == 0 {
		e.errorAt(x, "table needs a header array")
	}
	hdr, ok := x.Args[0].(*ast.Array)
	if !ok || len(hdr.Rows) != 1 {
		e.errorAt(x.Args[0], "table headers must be an array literal")
	}
	var headers []string
	var implicit []ast.Expr
	for _, el := range hdr.Rows[0] {
		switch el := el.(type) {
		case *ast.Str:
			headers = append(headers, el.Text)
		case *ast.Ident:
			headers = append(headers, el.Name)
			implicit = append(implicit, el)
		default:
			e.errorAt(el, "table header must be a string or a variable name")
		}
	}
	colArgs := x.Args[1:]
	if len(colArgs) == 0 {
		if len(implicit) != len(headers) {
			e.errorAt(x, "table needs a column for every header")
		}
		colArgs = implicit
	}
	if len(colArgs) != len(headers) {
		e.errorAt(x, "table has %d headers but %d columns", len(headers), len(colArgs))
	}
	t := &value.Table{Headers: headers}
	for _, a := range colArgs {
		vec := e.vecArg(a)
		col := make([]string, len(vec.Elems))
		for i, f := range vec.Elems {
			col[i] = value.FormatFloat(f)
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

// diffBuiltin differentiates an expression given as text with respect
// to a variable, through the symbolic engine if one is wired in.
func diffBuiltin(e *Evaluator, x *ast.Call) value.Value {
	e.arity(x, 2)
	expr, ok1 := e.expr(x.Args[0]).(value.String)
	wrt, ok2 := e.expr(x.Args[1]).(value.String)
	if !ok1 || !ok2 {
		e.errorAt(x, "diff takes an expression string and a variable name string")
	}
	if e.Symbolic == nil {
		e.errorAt(x, "symbolic engine not available")
	}
	res, err := e.Symbolic.Differentiate(string(expr), string(wrt))
	if err != nil {
		e.errorAt(x, "diff: %v", err)
	}
	return value.String(res)
}

// method dispatches receiver.method(args) calls: the math namespace
// when the receiver is the identifier math, otherwise value methods on
// matrices and vectors.
func (e *Evaluator) method(x *ast.Method) value.Value {
	if id, ok := x.Recv.(*ast.Ident); ok && id.Name == "math" && e.ctx.Lookup("math") == nil {
		return e.mathMethod(x)
	}
	recv := e.expr(x.Recv)
	switch recv := recv.(type) {
	case *value.Matrix:
		return e.matrixMethod(x, recv)
	case value.Vector:
		if x.Name == "T" && len(x.Args) == 0 {
			recv.Col = !recv.Col
			return recv
		}
	}
	e.errorAt(x, "%s has no method %s", value.TypeName(recv), x.Name)
	panic("unreachable")
}

func (e *Evaluator) matrixMethod(x *ast.Method, m *value.Matrix) value.Value {
	if len(x.Args) != 0 {
		e.errorAt(x, "matrix method %s takes no arguments", x.Name)
	}
	switch x.Name {
	case "det":
		return m.Det()
	case "inv":
		return m.Inv()
	case "T":
		return m.T()
	case "tr":
		return m.Trace()
	case "eigenvalues":
		return m.Eigenvalues()
	case "eigenvectors":
		return m.Eigenvectors()
	}
	e.errorAt(x, "matrix has no method %s", x.Name)
	panic("unreachable")
}

func (e *Evaluator) mathMethod(x *ast.Method) value.Value {
	unary := func(fn func(float64) float64) value.Value {
		if len(x.Args) != 1 {
			e.errorAt(x, "math.%s takes 1 argument, have %d", x.Name, len(x.Args))
		}
		return value.Num(fn(e.numArg(x.Args[0])))
	}
	binary := func(fn func(a, b float64) float64) value.Value {
		if len(x.Args) != 2 {
			e.errorAt(x, "math.%s takes 2 arguments, have %d", x.Name, len(x.Args))
		}
		return value.Num(fn(e.numArg(x.Args[0]), e.numArg(x.Args[1])))
	}
	switch x.Name {
	case "sin":
		return unary(math.Sin)
	case "cos":
		return unary(math.Cos)
	case "tan":
		return unary(math.Tan)
	case "sqrt":
		return unary(math.Sqrt)
	case "sqr":
		return unary(func(f float64) float64 { return f * f })
	case "abs":
		return unary(math.Abs)
	case "floor":
		return unary(math.Floor)
	case "ceil":
		return unary(math.Ceil)
	case "exp":
		return unary(math.Exp)
	case "mod":
		return binary(math.Mod)
	case "max":
		return binary(math.Max)
	case "min":
		return binary(math.Min)
	case "sum":
		if len(x.Args) != 1 {
			e.errorAt(x, "math.sum takes 1 argument, have %d", len(x.Args))
		}
		vec := e.vecArg(x.Args[0])
		total := 0.0
		for _, f := range vec.Elems {
			total += f
		}
		return value.Num(total)
	case "summation":
		return e.summation(x)
	}
	e.errorAt(x, "math has no function %s", x.Name)
	panic("unreachable")
}

// summation evaluates math.summation(expr, var, lo, hi): the expression
// argument is re-evaluated for each integer value of var from lo to hi
// inclusive, with any prior binding of var restored afterward.
func (e *Evaluator) summation(x *ast.Method) value.Value {
	if len(x.Args) != 4 {
		e.errorAt(x, "math.summation takes (expr, var, lo, hi), have %d arguments", len(x.Args))
	}
	id, ok := x.Args[1].(*ast.Ident)
	if !ok {
		e.errorAt(x.Args[1], "summation variable must be an identifier")
	}
	lo := e.intAt(x, e.expr(x.Args[2]), "summation lower bound")
	hi := e.intAt(x, e.expr(x.Args[3]), "summation upper bound")
	saved := e.ctx.Lookup(id.Name)
	defer func() {
		if saved != nil {
			e.ctx.AssignLocal(id.Name, saved)
		} else {
			e.ctx.UnassignLocal(id.Name)
		}
	}()
	total := 0.0
	for i := lo; i <= hi; i++ {
		e.ctx.AssignLocal(id.Name, value.Num(float64(i)))
		total += e.numArg(x.Args[0])
	}
	return value.Num(total)
}
