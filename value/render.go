// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Table is the render payload of the table builtin: named columns of
// values. In plain mode it prints as an aligned text table; the HTML
// renderer consumes the fields directly.
type Table struct {
	Headers []string
	Columns [][]string
}

// NumRows returns the length of the longest column.
func (t *Table) NumRows() int {
	n := 0
	for _, c := range t.Columns {
		if len(c) > n {
			n = len(c)
		}
	}
	return n
}

// Row returns the i'th row, with short columns padded by empty cells.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		if i < len(c) {
			row[j] = c[i]
		}
	}
	return row
}

func (t *Table) Sprint() string {
	var sb strings.Builder
	w := tablewriter.NewWriter(&sb)
	w.SetHeader(t.Headers)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	for i := 0; i < t.NumRows(); i++ {
		w.Append(t.Row(i))
	}
	w.Render()
	return strings.TrimRight(sb.String(), "\n")
}

// Graph is the render payload of the graph builtins. A 2-D graph holds
// paired X/Y series; a 3-D graph holds only a title and dimensions.
// Plain mode prints a one-line summary; plotting belongs to the HTML
// renderer.
type Graph struct {
	Title string
	X, Y  []float64
	Dims  []float64 // graph_3d only
	Is3D  bool
}

func (g *Graph) Sprint() string {
	title := g.Title
	if title == "" {
		title = "graph"
	}
	if g.Is3D {
		return fmt.Sprintf("[3d graph: %s]", title)
	}
	return fmt.Sprintf("[graph: %s, %d points]", title, len(g.X))
}
