// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a labeled samples x genes expression matrix: a dense
// float64 buffer paired with ordered row (sample) and column (gene)
// labels. Column labels may repeat until Deduplicate has been called;
// label lookup resolves to the first occurrence. All operations on
// Matrix return new values and leave their receiver unchanged.
type Matrix struct {
	rows   []string
	cols   []string
	colIdx map[string]int
	data   *mat.Dense
}

// NewMatrix builds a Matrix from row-major data. len(data) must equal
// len(rows)*len(cols).
func NewMatrix(rows, cols []string, data []float64) (*Matrix, error) {
	if len(data) != len(rows)*len(cols) {
		return nil, fmt.Errorf("genemunge: matrix data length %d does not match %d rows x %d cols", len(data), len(rows), len(cols))
	}
	m := &Matrix{
		rows: append([]string(nil), rows...),
		cols: append([]string(nil), cols...),
	}
	if len(rows) > 0 && len(cols) > 0 {
		m.data = mat.NewDense(len(rows), len(cols), append([]float64(nil), data...))
	}
	m.reindex()
	return m, nil
}

func (m *Matrix) reindex() {
	m.colIdx = make(map[string]int, len(m.cols))
	for i, label := range m.cols {
		if _, dup := m.colIdx[label]; !dup {
			m.colIdx[label] = i
		}
	}
}

// Dims returns (samples, genes).
func (m *Matrix) Dims() (int, int) { return len(m.rows), len(m.cols) }

// Rows returns the ordered sample labels.
func (m *Matrix) Rows() []string { return append([]string(nil), m.rows...) }

// Cols returns the ordered gene labels.
func (m *Matrix) Cols() []string { return append([]string(nil), m.cols...) }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data.At(i, j) }

// ColIndex returns the position of the first column with the given
// label, or -1 if the label is absent.
func (m *Matrix) ColIndex(label string) int {
	if j, ok := m.colIdx[label]; ok {
		return j
	}
	return -1
}

// ColIndices maps column labels to positions, failing on the first
// unknown label.
func (m *Matrix) ColIndices(labels []string) ([]int, error) {
	idx := make([]int, len(labels))
	for i, label := range labels {
		j := m.ColIndex(label)
		if j < 0 {
			return nil, fmt.Errorf("genemunge: no column %q in matrix", label)
		}
		idx[i] = j
	}
	return idx, nil
}

// Dense returns the underlying gonum matrix. The caller must not
// modify it.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		rows: append([]string(nil), m.rows...),
		cols: append([]string(nil), m.cols...),
	}
	if m.data != nil {
		out.data = mat.DenseCopyOf(m.data)
	}
	out.reindex()
	return out
}

// SelectColumns returns the sub-matrix restricted to the given column
// positions, in the given order.
func (m *Matrix) SelectColumns(idx []int) (*Matrix, error) {
	nrow, ncol := m.Dims()
	cols := make([]string, len(idx))
	for i, j := range idx {
		if j < 0 || j >= ncol {
			return nil, fmt.Errorf("genemunge: column index %d out of range [0,%d)", j, ncol)
		}
		cols[i] = m.cols[j]
	}
	data := make([]float64, nrow*len(idx))
	for i := 0; i < nrow; i++ {
		for k, j := range idx {
			data[i*len(idx)+k] = m.data.At(i, j)
		}
	}
	return NewMatrix(m.rows, cols, data)
}

// SelectColumnLabels is SelectColumns keyed by label.
func (m *Matrix) SelectColumnLabels(labels []string) (*Matrix, error) {
	idx, err := m.ColIndices(labels)
	if err != nil {
		return nil, err
	}
	return m.SelectColumns(idx)
}

// withData returns a matrix sharing m's labels over new row-major
// data.
func (m *Matrix) withData(data []float64) *Matrix {
	out, err := NewMatrix(m.rows, m.cols, data)
	if err != nil {
		panic(err) // lengths are derived from m
	}
	return out
}

// rawRow returns the backing slice for row i of a dense matrix.
func rawRow(d *mat.Dense, i int) []float64 {
	if d == nil {
		return nil
	}
	raw := d.RawMatrix()
	return raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
}
