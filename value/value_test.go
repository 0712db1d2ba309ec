// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catch runs f and returns the execution error it panicked with, or "".
func catch(f func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(Error)
			if !ok {
				panic(r)
			}
			msg = string(err)
		}
	}()
	f()
	return ""
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "4", FormatFloat(4.0))
	assert.Equal(t, "-12", FormatFloat(-12.0))
	assert.Equal(t, "3.142", FormatFloat(3.14159))
	assert.Equal(t, "2.5", FormatFloat(2.5))
	assert.Equal(t, "0.1", FormatFloat(0.1))
}

func TestComplexSprint(t *testing.T) {
	assert.Equal(t, "3 + 2i", Complex{Re: 3, Im: 2}.Sprint())
	assert.Equal(t, "3 - 2i", Complex{Re: 3, Im: -2}.Sprint())
	assert.Equal(t, "0 + 1i", Complex{Im: 1}.Sprint())
}

func TestNumberArith(t *testing.T) {
	sum := Binary("+", Num(3), Num(4))
	assert.Equal(t, Num(7), sum)
	assert.Equal(t, "8", Binary("^", Num(2), Num(3)).Sprint())
	assert.Equal(t, "1", Binary("%", Num(7), Num(3)).Sprint())
}

func TestDivisionByZero(t *testing.T) {
	msg := catch(func() { Binary("/", Num(1), Num(0)) })
	assert.Contains(t, msg, "division by zero")
}

func TestUnitAddConverts(t *testing.T) {
	// Addition converts the right operand into the left operand's unit.
	m := Number{Val: 1, Units: MakeUnits("m", 1)}
	cm := Number{Val: 100, Units: MakeUnits("cm", 1)}
	sum := Binary("+", m, cm)
	assert.Equal(t, "2 m", sum.Sprint())

	back := Binary("+", cm, m)
	assert.Equal(t, "200 cm", back.Sprint())
}

func TestUnitIncompatible(t *testing.T) {
	m := Number{Val: 1, Units: MakeUnits("m", 1)}
	s := Number{Val: 1, Units: MakeUnits("s", 1)}
	msg := catch(func() { Binary("+", m, s) })
	assert.Contains(t, msg, "incompatible units")
}

func TestUnitMulDiv(t *testing.T) {
	kip := Number{Val: 10, Units: MakeUnits("kip", 1)}
	in := Number{Val: 2, Units: MakeUnits("in", 1)}
	moment := Binary("*", kip, in)
	assert.Equal(t, "20 kip-in", moment.Sprint())

	speed := Binary("/", Number{Val: 6, Units: MakeUnits("m", 1)}, Number{Val: 2, Units: MakeUnits("s", 1)})
	assert.Equal(t, "3 m/s", speed.Sprint())

	ratio := Binary("/", in, Number{Val: 1, Units: MakeUnits("in", 1)})
	assert.Equal(t, "2", ratio.Sprint())
}

func TestUnitDisplayOrder(t *testing.T) {
	// Force sorts before length no matter the multiplication order.
	in := Number{Val: 2, Units: MakeUnits("in", 1)}
	kip := Number{Val: 10, Units: MakeUnits("kip", 1)}
	moment := Binary("*", in, kip)
	assert.Equal(t, "20 kip-in", moment.Sprint())
}

func TestPureDenominator(t *testing.T) {
	hz := Binary("/", Num(5), Number{Val: 1, Units: MakeUnits("s", 1)})
	assert.Equal(t, "5 1/s", hz.Sprint())
}

func TestUnitPower(t *testing.T) {
	side := Number{Val: 3, Units: MakeUnits("m", 1)}
	area := Binary("^", side, Num(2))
	assert.Equal(t, "9 m^2", area.Sprint())

	msg := catch(func() { Binary("^", side, Num(0.5)) })
	assert.Contains(t, msg, "integer")
}

func TestUnitCompare(t *testing.T) {
	m := Number{Val: 1, Units: MakeUnits("m", 1)}
	cm := Number{Val: 100, Units: MakeUnits("cm", 1)}
	assert.Equal(t, Num(1), Binary("==", m, cm))
	assert.Equal(t, Num(0), Binary("<", m, cm))
}

func TestComplexArith(t *testing.T) {
	a := Complex{Re: 1, Im: 2}
	b := Complex{Re: 3, Im: -1}
	sum := Binary("+", a, b).(Complex)
	assert.Equal(t, Complex{Re: 4, Im: 1}, sum)

	// i^2 = -1.
	sq := Binary("*", Complex{Im: 1}, Complex{Im: 1}).(Complex)
	assert.InDelta(t, -1, sq.Re, 1e-12)
	assert.InDelta(t, 0, sq.Im, 1e-12)

	mixed := Binary("+", Num(3), Complex{Im: 2}).(Complex)
	assert.Equal(t, Complex{Re: 3, Im: 2}, mixed)
}

func TestStringOps(t *testing.T) {
	cat := Binary("+", String("foo"), String("bar"))
	assert.Equal(t, String("foobar"), cat)
	assert.Equal(t, Num(1), Binary("==", String("x"), String("x")))
	assert.Equal(t, Num(1), Binary("!=", String("x"), String("y")))
}

func TestTruth(t *testing.T) {
	assert.True(t, Truth(Num(1)))
	assert.False(t, Truth(Num(0)))
	msg := catch(func() { Truth(String("yes")) })
	assert.Contains(t, msg, "not a number")
}

func TestUnary(t *testing.T) {
	assert.Equal(t, Num(-3), Unary("-", Num(3)))
	assert.Equal(t, Num(0), Unary("!", Num(5)))
	assert.Equal(t, Num(1), Unary("!", Num(0)))
	neg := Unary("-", Complex{Re: 1, Im: -2}).(Complex)
	assert.Equal(t, Complex{Re: -1, Im: 2}, neg)
}

func TestVectorOps(t *testing.T) {
	row := Vector{Elems: []float64{1, 2, 3}}
	col := Vector{Elems: []float64{4, 5, 6}, Col: true}

	require.Equal(t, "[1, 2, 3]", row.Sprint())
	require.Equal(t, "[4; 5; 6]", col.Sprint())

	dot := Binary("*", row, col)
	assert.Equal(t, Num(32), dot)

	scaled := Binary("*", row, Num(2)).(Vector)
	assert.Equal(t, []float64{2, 4, 6}, scaled.Elems)

	sum := Binary("+", row, Vector{Elems: []float64{1, 1, 1}}).(Vector)
	assert.Equal(t, []float64{2, 3, 4}, sum.Elems)

	msg := catch(func() { Binary("+", row, col) })
	assert.Contains(t, msg, "row and column")
}

func TestVectorIndex(t *testing.T) {
	v := Vector{Elems: []float64{7, 8}}
	assert.Equal(t, Num(8), v.At(1))
	msg := catch(func() { v.At(5) })
	assert.Contains(t, msg, "out of bounds")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "number", TypeName(Num(1)))
	assert.Equal(t, "complex", TypeName(Complex{}))
	assert.Equal(t, "array", TypeName(Vector{}))
	assert.Equal(t, "matrix", TypeName(NewMatrix(1, 1, []float64{1})))
	assert.Equal(t, "none", TypeName(nil))
}
