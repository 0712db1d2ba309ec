// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value implements the runtime values of madola programs:
// numbers with optional unit tags, strings, complex numbers, vectors,
// matrices, and the render payloads produced by the table and graph
// builtins. It also implements the unary and binary operators over them.
package value // import "madola.dev/madola/value"

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the interface satisfied by all runtime values.
type Value interface {
	// Sprint returns the display form used by print.
	Sprint() string
}

// Error is the type of all execution errors. It is panicked with and
// recovered at the statement loop in the run package.
type Error string

func (err Error) Error() string {
	return string(err)
}

// Errorf panics with an Error built from the arguments.
func Errorf(format string, args ...interface{}) {
	panic(Error(fmt.Sprintf(format, args...)))
}

// Number is a double-precision number with an optional unit tag.
type Number struct {
	Val   float64
	Units Units
}

func Num(f float64) Number {
	return Number{Val: f}
}

func (n Number) Sprint() string {
	if len(n.Units) == 0 {
		return FormatFloat(n.Val)
	}
	return FormatFloat(n.Val) + " " + n.Units.String()
}

// String is a string value.
type String string

func (s String) Sprint() string {
	return string(s)
}

// Complex is a complex number.
type Complex struct {
	Re, Im float64
}

func (c Complex) Sprint() string {
	if c.Im < 0 {
		return fmt.Sprintf("%s - %si", FormatFloat(c.Re), FormatFloat(-c.Im))
	}
	return fmt.Sprintf("%s + %si", FormatFloat(c.Re), FormatFloat(c.Im))
}

// FormatFloat renders a float the way madola prints numbers: whole
// values as integers, others with three decimals and trailing zeros
// trimmed.
func FormatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// Truth reports the boolean coercion of a condition value: a nonzero
// Number is true. Any other value type is an error.
func Truth(v Value) bool {
	n, ok := v.(Number)
	if !ok {
		Errorf("condition is %s, not a number", TypeName(v))
	}
	return n.Val != 0
}

// Bool returns the Number encoding of a boolean: 1 or 0.
func Bool(b bool) Number {
	if b {
		return Num(1)
	}
	return Num(0)
}

// TypeName returns the name of a value's type as reported by the
// type builtin.
func TypeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case Complex:
		return "complex"
	case Vector:
		return "array"
	case *Matrix:
		return "matrix"
	case *Table:
		return "table"
	case *Graph:
		return "graph"
	case nil:
		return "none"
	}
	return fmt.Sprintf("%T", v)
}
