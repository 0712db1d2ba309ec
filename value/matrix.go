// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense two-dimensional grid of doubles, stored row-major.
// The linear-algebra methods delegate to gonum.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix builds a rows×cols matrix from row-major data.
func NewMatrix(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		Errorf("matrix data length %d does not match %dx%d", len(data), rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// At returns the element at row i, column j, zero-based.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		Errorf("matrix index [%d, %d] out of bounds for %dx%d matrix", i, j, m.rows, m.cols)
	}
	return m.data[i*m.cols+j]
}

// Data returns the row-major backing slice.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) Sprint() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(FormatFloat(m.data[i*m.cols+j]))
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}

func (m *Matrix) dense() *mat.Dense {
	return mat.NewDense(m.rows, m.cols, m.data)
}

func fromDense(d *mat.Dense) *Matrix {
	r, c := d.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = d.At(i, j)
		}
	}
	return &Matrix{rows: r, cols: c, data: data}
}

func (m *Matrix) square(method string) {
	if m.rows != m.cols {
		Errorf("%s requires a square matrix, have %dx%d", method, m.rows, m.cols)
	}
}

// Det returns the determinant of a square matrix.
func (m *Matrix) Det() Number {
	m.square("det")
	return Num(mat.Det(m.dense()))
}

// Inv returns the inverse of a square, non-singular matrix.
func (m *Matrix) Inv() *Matrix {
	m.square("inv")
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		Errorf("matrix is not invertible")
	}
	return fromDense(&inv)
}

// T returns the transpose.
func (m *Matrix) T() *Matrix {
	data := make([]float64, len(m.data))
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return &Matrix{rows: m.cols, cols: m.rows, data: data}
}

// Trace returns the trace of a square matrix.
func (m *Matrix) Trace() Number {
	m.square("tr")
	return Num(mat.Trace(m.dense()))
}

const eigenImagTol = 1e-10

// Eigenvalues returns the eigenvalues of a square matrix as a row
// vector. Complex eigenvalues are not representable in an array and
// are reported as an error.
func (m *Matrix) Eigenvalues() Vector {
	m.square("eigenvalues")
	var eig mat.Eigen
	if !eig.Factorize(m.dense(), mat.EigenRight) {
		Errorf("eigenvalue decomposition failed")
	}
	vals := eig.Values(nil)
	out := make([]float64, len(vals))
	for i, v := range vals {
		if math.Abs(imag(v)) > eigenImagTol {
			Errorf("matrix has complex eigenvalues")
		}
		out[i] = real(v)
	}
	return Vector{Elems: out}
}

// Eigenvectors returns the right eigenvectors of a square matrix as the
// columns of a matrix, under the same realness restriction as Eigenvalues.
func (m *Matrix) Eigenvectors() *Matrix {
	m.square("eigenvectors")
	var eig mat.Eigen
	if !eig.Factorize(m.dense(), mat.EigenRight) {
		Errorf("eigenvector decomposition failed")
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)
	r, c := vecs.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := vecs.At(i, j)
			if math.Abs(imag(v)) > eigenImagTol {
				Errorf("matrix has complex eigenvectors")
			}
			data[i*c+j] = real(v)
		}
	}
	return &Matrix{rows: r, cols: c, data: data}
}

// add is elementwise addition or subtraction.
func (m *Matrix) add(n *Matrix, sign float64) *Matrix {
	if m.rows != n.rows || m.cols != n.cols {
		Errorf("matrix dimensions %dx%d and %dx%d do not match", m.rows, m.cols, n.rows, n.cols)
	}
	data := make([]float64, len(m.data))
	for i := range data {
		data[i] = m.data[i] + sign*n.data[i]
	}
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// mul is the matrix product.
func (m *Matrix) mul(n *Matrix) *Matrix {
	if m.cols != n.rows {
		Errorf("cannot multiply %dx%d matrix by %dx%d matrix", m.rows, m.cols, n.rows, n.cols)
	}
	var prod mat.Dense
	prod.Mul(m.dense(), n.dense())
	return fromDense(&prod)
}

// scale multiplies every element by f.
func (m *Matrix) scale(f float64) *Matrix {
	data := make([]float64, len(m.data))
	for i, e := range m.data {
		data[i] = e * f
	}
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// mulVec multiplies m by a column vector, yielding a column vector.
func (m *Matrix) mulVec(v Vector) Vector {
	if m.cols != len(v.Elems) {
		Errorf("cannot multiply %dx%d matrix by array of length %d", m.rows, m.cols, len(v.Elems))
	}
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for j := 0; j < m.cols; j++ {
			sum += m.data[i*m.cols+j] * v.Elems[j]
		}
		out[i] = sum
	}
	return Vector{Elems: out, Col: true}
}

// vecMul multiplies a row vector by m, yielding a row vector.
func (m *Matrix) vecMul(v Vector) Vector {
	if len(v.Elems) != m.rows {
		Errorf("cannot multiply array of length %d by %dx%d matrix", len(v.Elems), m.rows, m.cols)
	}
	out := make([]float64, m.cols)
	for j := 0; j < m.cols; j++ {
		sum := 0.0
		for i := 0; i < m.rows; i++ {
			sum += v.Elems[i] * m.data[i*m.cols+j]
		}
		out[j] = sum
	}
	return Vector{Elems: out}
}
