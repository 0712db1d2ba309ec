// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "strings"

// Vector is a one-dimensional array of doubles, printed and multiplied
// according to its orientation.
type Vector struct {
	Elems []float64
	Col   bool
}

func (v Vector) Sprint() string {
	sep := ", "
	if v.Col {
		sep = "; "
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range v.Elems {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(FormatFloat(e))
	}
	sb.WriteByte(']')
	return sb.String()
}

// At returns the i'th element as a Number. Indexing is zero-based;
// out of range is a runtime error.
func (v Vector) At(i int) Number {
	if i < 0 || i >= len(v.Elems) {
		Errorf("index %d out of bounds for array of length %d", i, len(v.Elems))
	}
	return Number{Val: v.Elems[i]}
}

// Set stores f at index i, reporting out-of-bounds as a runtime error.
func (v Vector) Set(i int, f float64) {
	if i < 0 || i >= len(v.Elems) {
		Errorf("index %d out of bounds for array of length %d", i, len(v.Elems))
	}
	v.Elems[i] = f
}

// Dot returns the dot product of two equal-length vectors.
func (v Vector) Dot(w Vector) Number {
	if len(v.Elems) != len(w.Elems) {
		Errorf("dot product of arrays with lengths %d and %d", len(v.Elems), len(w.Elems))
	}
	sum := 0.0
	for i, e := range v.Elems {
		sum += e * w.Elems[i]
	}
	return Number{Val: sum}
}

// clone returns a copy of v sharing nothing with it.
func (v Vector) clone() Vector {
	elems := make([]float64, len(v.Elems))
	copy(elems, v.Elems)
	return Vector{Elems: elems, Col: v.Col}
}

// mapElems returns a copy of v with f applied to every element.
func (v Vector) mapElems(f func(float64) float64) Vector {
	out := v.clone()
	for i, e := range out.Elems {
		out.Elems[i] = f(e)
	}
	return out
}
