// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"math"
	"math/cmplx"
)

// Binary applies a binary operator to two values, dispatching on the
// operand types. Type or dimension mismatches are semantic errors.
func Binary(op string, u, v Value) Value {
	switch op {
	case "||":
		return Bool(Truth(u) || Truth(v))
	case "&&":
		return Bool(Truth(u) && Truth(v))
	case "==", "!=", "<", "<=", ">", ">=":
		return compare(op, u, v)
	case "+", "-", "*", "/", "%", "^":
		return arith(op, u, v)
	}
	Errorf("unknown operator %q", op)
	panic("unreachable")
}

func compare(op string, u, v Value) Value {
	switch a := u.(type) {
	case Number:
		b, ok := v.(Number)
		if !ok {
			break
		}
		x, y := a.Val, b.Val
		if len(a.Units) > 0 || len(b.Units) > 0 {
			if !a.Units.Compatible(b.Units) {
				Errorf("cannot compare incompatible units: %s %s %s", a.Units, op, b.Units)
			}
			x *= a.Units.Factor()
			y *= b.Units.Factor()
		}
		switch op {
		case "==":
			return Bool(x == y)
		case "!=":
			return Bool(x != y)
		case "<":
			return Bool(x < y)
		case "<=":
			return Bool(x <= y)
		case ">":
			return Bool(x > y)
		case ">=":
			return Bool(x >= y)
		}
	case String:
		b, ok := v.(String)
		if !ok {
			break
		}
		switch op {
		case "==":
			return Bool(a == b)
		case "!=":
			return Bool(a != b)
		}
	case Complex:
		b, ok := toComplex(v)
		if !ok {
			break
		}
		switch op {
		case "==":
			return Bool(a == b)
		case "!=":
			return Bool(a != b)
		}
	}
	Errorf("cannot compare %s %s %s", TypeName(u), op, TypeName(v))
	panic("unreachable")
}

func arith(op string, u, v Value) Value {
	switch a := u.(type) {
	case Number:
		switch b := v.(type) {
		case Number:
			return numberArith(op, a, b)
		case Complex:
			if len(a.Units) > 0 {
				Errorf("cannot mix units and complex values")
			}
			return complexArith(op, Complex{Re: a.Val}, b)
		case String:
			if op == "+" {
				return String(a.Sprint()) + b
			}
		case Vector:
			return scalarVector(op, a, b)
		case *Matrix:
			if op == "*" && len(a.Units) == 0 {
				return b.scale(a.Val)
			}
		}
	case Complex:
		switch b := v.(type) {
		case Complex:
			return complexArith(op, a, b)
		case Number:
			if len(b.Units) > 0 {
				Errorf("cannot mix units and complex values")
			}
			return complexArith(op, a, Complex{Re: b.Val})
		}
	case String:
		if op == "+" {
			switch b := v.(type) {
			case String:
				return a + b
			case Number:
				return a + String(b.Sprint())
			case Complex:
				return a + String(b.Sprint())
			}
		}
	case Vector:
		switch b := v.(type) {
		case Number:
			return vectorScalar(op, a, b)
		case Vector:
			return vectorVector(op, a, b)
		case *Matrix:
			if op == "*" {
				if a.Col {
					Errorf("cannot multiply column array by matrix")
				}
				return b.vecMul(a)
			}
		}
	case *Matrix:
		switch b := v.(type) {
		case *Matrix:
			switch op {
			case "+":
				return a.add(b, 1)
			case "-":
				return a.add(b, -1)
			case "*":
				return a.mul(b)
			}
		case Number:
			if len(b.Units) > 0 {
				break
			}
			switch op {
			case "*":
				return a.scale(b.Val)
			case "/":
				if b.Val == 0 {
					Errorf("division by zero")
				}
				return a.scale(1 / b.Val)
			}
		case Vector:
			if op == "*" {
				if !b.Col {
					Errorf("cannot multiply matrix by row array")
				}
				return a.mulVec(b)
			}
		}
	}
	Errorf("operator %s not defined on %s and %s", op, TypeName(u), TypeName(v))
	panic("unreachable")
}

func numberArith(op string, a, b Number) Value {
	switch op {
	case "+", "-":
		sign := 1.0
		if op == "-" {
			sign = -1
		}
		if len(a.Units) == 0 && len(b.Units) == 0 {
			return Num(a.Val + sign*b.Val)
		}
		if len(a.Units) == 0 || len(b.Units) == 0 {
			Errorf("cannot %s dimensionless value and value with units", opName(op))
		}
		if !a.Units.Compatible(b.Units) {
			Errorf("cannot %s incompatible units: %s %s %s", opName(op), a.Units, op, b.Units)
		}
		converted := b.Val * b.Units.Factor() / a.Units.Factor()
		return Number{Val: a.Val + sign*converted, Units: a.Units}
	case "*":
		return Number{Val: a.Val * b.Val, Units: a.Units.Mul(b.Units)}
	case "/":
		if b.Val == 0 {
			Errorf("division by zero")
		}
		return Number{Val: a.Val / b.Val, Units: a.Units.Div(b.Units)}
	case "%":
		if len(a.Units) > 0 || len(b.Units) > 0 {
			Errorf("operator %% not defined on values with units")
		}
		if b.Val == 0 {
			Errorf("division by zero")
		}
		return Num(math.Mod(a.Val, b.Val))
	case "^":
		if len(b.Units) > 0 {
			Errorf("exponent must be dimensionless")
		}
		if len(a.Units) == 0 {
			return Num(math.Pow(a.Val, b.Val))
		}
		if b.Val != math.Trunc(b.Val) {
			Errorf("exponent on a value with units must be an integer")
		}
		return Number{Val: math.Pow(a.Val, b.Val), Units: a.Units.Pow(int(b.Val))}
	}
	Errorf("operator %s not defined on numbers", op)
	panic("unreachable")
}

func opName(op string) string {
	if op == "-" {
		return "subtract"
	}
	return "add"
}

func toComplex(v Value) (Complex, bool) {
	switch b := v.(type) {
	case Complex:
		return b, true
	case Number:
		if len(b.Units) > 0 {
			return Complex{}, false
		}
		return Complex{Re: b.Val}, true
	}
	return Complex{}, false
}

func complexArith(op string, a, b Complex) Value {
	x := complex(a.Re, a.Im)
	y := complex(b.Re, b.Im)
	var z complex128
	switch op {
	case "+":
		z = x + y
	case "-":
		z = x - y
	case "*":
		z = x * y
	case "/":
		if y == 0 {
			Errorf("division by zero")
		}
		z = x / y
	case "^":
		z = cmplx.Pow(x, y)
	default:
		Errorf("operator %s not defined on complex values", op)
	}
	return Complex{Re: real(z), Im: imag(z)}
}

// scalarFloat applies a scalar arithmetic op to two raw doubles.
func scalarFloat(op string, x, y float64) float64 {
	switch op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		if y == 0 {
			Errorf("division by zero")
		}
		return x / y
	case "%":
		if y == 0 {
			Errorf("division by zero")
		}
		return math.Mod(x, y)
	case "^":
		return math.Pow(x, y)
	}
	Errorf("operator %s not defined on numbers", op)
	panic("unreachable")
}

func vectorScalar(op string, a Vector, b Number) Value {
	if len(b.Units) > 0 {
		Errorf("array arithmetic with united scalars is not supported")
	}
	return a.mapElems(func(e float64) float64 { return scalarFloat(op, e, b.Val) })
}

func scalarVector(op string, a Number, b Vector) Value {
	if len(a.Units) > 0 {
		Errorf("array arithmetic with united scalars is not supported")
	}
	return b.mapElems(func(e float64) float64 { return scalarFloat(op, a.Val, e) })
}

func vectorVector(op string, a, b Vector) Value {
	// Row times column is the dot product.
	if op == "*" && !a.Col && b.Col {
		return a.Dot(b)
	}
	if a.Col != b.Col {
		Errorf("cannot %s row and column arrays", opSymbolName(op))
	}
	if len(a.Elems) != len(b.Elems) {
		Errorf("arrays have different lengths %d and %d", len(a.Elems), len(b.Elems))
	}
	out := a.clone()
	for i := range out.Elems {
		out.Elems[i] = scalarFloat(op, a.Elems[i], b.Elems[i])
	}
	return out
}

func opSymbolName(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "subtract"
	case "*":
		return "multiply"
	case "/":
		return "divide"
	}
	return "combine"
}
