// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

// Unary applies a unary operator to a value.
func Unary(op string, v Value) Value {
	switch op {
	case "+":
		switch v.(type) {
		case Number, Complex, Vector, *Matrix:
			return v
		}
	case "-":
		switch a := v.(type) {
		case Number:
			return Number{Val: -a.Val, Units: a.Units}
		case Complex:
			return Complex{Re: -a.Re, Im: -a.Im}
		case Vector:
			return a.mapElems(func(e float64) float64 { return -e })
		case *Matrix:
			return a.scale(-1)
		}
	case "!":
		return Bool(!Truth(v))
	}
	Errorf("operator %s not defined on %s", op, TypeName(v))
	panic("unreachable")
}
