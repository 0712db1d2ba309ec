// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixSprint(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	assert.Equal(t, "[[1, 2]; [3, 4]]", m.Sprint())
}

func TestMatrixArith(t *testing.T) {
	a := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	b := NewMatrix(2, 2, []float64{5, 6, 7, 8})

	sum := Binary("+", a, b).(*Matrix)
	assert.Equal(t, []float64{6, 8, 10, 12}, sum.Data())

	prod := Binary("*", a, b).(*Matrix)
	assert.Equal(t, []float64{19, 22, 43, 50}, prod.Data())

	scaled := Binary("*", a, Num(2)).(*Matrix)
	assert.Equal(t, []float64{2, 4, 6, 8}, scaled.Data())
}

func TestMatrixVector(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	col := Vector{Elems: []float64{1, 1}, Col: true}
	got := Binary("*", m, col).(Vector)
	assert.True(t, got.Col)
	assert.Equal(t, []float64{3, 7}, got.Elems)

	row := Vector{Elems: []float64{1, 1}}
	left := Binary("*", row, m).(Vector)
	assert.False(t, left.Col)
	assert.Equal(t, []float64{4, 6}, left.Elems)
}

func TestMatrixDet(t *testing.T) {
	m := NewMatrix(2, 2, []float64{3, 8, 4, 6})
	det := m.Det()
	assert.InDelta(t, -14, det.Val, 1e-9)
}

func TestMatrixInvRoundTrip(t *testing.T) {
	m := NewMatrix(2, 2, []float64{4, 7, 2, 6})
	inv := m.Inv()
	back := inv.Inv()
	require.Equal(t, m.Rows(), back.Rows())
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, m.At(i, j), back.At(i, j), 1e-9)
		}
	}
}

func TestMatrixSingularInv(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 2, 4})
	msg := catch(func() { m.Inv() })
	assert.Contains(t, msg, "not invertible")
}

func TestMatrixTranspose(t *testing.T) {
	m := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tr := m.T()
	require.Equal(t, 3, tr.Rows())
	require.Equal(t, 2, tr.Cols())
	assert.Equal(t, 4.0, tr.At(0, 1))
}

func TestMatrixTrace(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	assert.InDelta(t, 5, m.Trace().Val, 1e-12)

	rect := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	msg := catch(func() { rect.Trace() })
	assert.Contains(t, msg, "square")
}

func TestMatrixEigenvalues(t *testing.T) {
	// Symmetric, so the eigenvalues are real: 1 and 3.
	m := NewMatrix(2, 2, []float64{2, 1, 1, 2})
	eig := m.Eigenvalues()
	require.Len(t, eig.Elems, 2)
	lo, hi := eig.Elems[0], eig.Elems[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	assert.InDelta(t, 1, lo, 1e-9)
	assert.InDelta(t, 3, hi, 1e-9)
}
