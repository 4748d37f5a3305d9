package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Segment returns a copy of s[from:to]. Out of range bounds are clamped, so
// an empty class of variables always yields an empty, non-nil slice.
func (s State) Segment(from, to int) State {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if to < from {
		to = from
	}
	out := make(State, to-from)
	copy(out, s[from:to])
	return out
}

// Concat returns a new vector holding s followed by each of others.
func Concat(parts ...State) State {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(State, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Matrix is a dense row-major matrix. The zero value is an empty 0x0 matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix returns a zero rows x cols matrix. Either dimension may be zero.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(ErrInvalidShape)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromRows builds a matrix from a slice of equal-length rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, &ShapeError{Op: "FromRows", Want: [2]int{len(rows), cols}, Got: [2]int{i, len(r)}, Wrapped: ErrDimensionMismatch}
		}
		copy(m.data[i*cols:(i+1)*cols], r)
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Data exposes the backing row-major slice.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) State {
	out := make(State, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// RowView returns row i without copying.
func (m *Matrix) RowView(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) State {
	out := make(State, m.rows)
	for i := 0; i < m.rows; i++ {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

func (m *Matrix) SetCol(j int, v []float64) {
	for i := 0; i < m.rows && i < len(v); i++ {
		m.data[i*m.cols+j] = v[i]
	}
}

func (m *Matrix) Clone() *Matrix {
	if m == nil {
		return nil
	}
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(c.data, m.data)
	return c
}

// T returns the transpose as a new matrix.
func (m *Matrix) T() *Matrix {
	t := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			t.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return t
}

// Columns returns a copy of the column block [from, to).
func (m *Matrix) Columns(from, to int) *Matrix {
	if from < 0 {
		from = 0
	}
	if to > m.cols {
		to = m.cols
	}
	if to < from {
		to = from
	}
	out := NewMatrix(m.rows, to-from)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i*out.cols:(i+1)*out.cols], m.data[i*m.cols+from:i*m.cols+to])
	}
	return out
}

// HStack joins m and others horizontally. All operands need the same row
// count; zero-column operands are skipped.
func (m *Matrix) HStack(others ...*Matrix) (*Matrix, error) {
	cols := m.cols
	for _, o := range others {
		if o.cols == 0 {
			continue
		}
		if o.rows != m.rows {
			return nil, &ShapeError{Op: "HStack", Want: [2]int{m.rows, o.cols}, Got: [2]int{o.rows, o.cols}, Wrapped: ErrDimensionMismatch}
		}
		cols += o.cols
	}
	out := NewMatrix(m.rows, cols)
	for i := 0; i < m.rows; i++ {
		off := i * cols
		copy(out.data[off:off+m.cols], m.RowView(i))
		off += m.cols
		for _, o := range others {
			if o.cols == 0 {
				continue
			}
			copy(out.data[off:off+o.cols], o.RowView(i))
			off += o.cols
		}
	}
	return out, nil
}

// ZerosLike returns a zero matrix with the same shape as m.
func ZerosLike(m *Matrix) *Matrix {
	return NewMatrix(m.rows, m.cols)
}

// Equal reports whether m and o share a shape and differ by at most tol
// element-wise.
func (m *Matrix) Equal(o *Matrix, tol float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if math.Abs(m.data[i]-o.data[i]) > tol {
			return false
		}
	}
	return true
}

// Tensor3 is a dense 3-axis array indexed by [row, col, node]. Each node's
// rows x cols block is stored contiguously.
type Tensor3 struct {
	rows, cols, nodes int
	data              []float64
}

func NewTensor3(rows, cols, nodes int) *Tensor3 {
	if rows < 0 || cols < 0 || nodes < 0 {
		panic(ErrInvalidShape)
	}
	return &Tensor3{rows: rows, cols: cols, nodes: nodes, data: make([]float64, rows*cols*nodes)}
}

func (t *Tensor3) Dims() (rows, cols, nodes int) { return t.rows, t.cols, t.nodes }

func (t *Tensor3) At(i, j, k int) float64 {
	return t.data[(k*t.rows+i)*t.cols+j]
}

func (t *Tensor3) Set(i, j, k int, v float64) {
	t.data[(k*t.rows+i)*t.cols+j] = v
}

// BlockView returns node k's row-major block without copying.
func (t *Tensor3) BlockView(k int) []float64 {
	size := t.rows * t.cols
	return t.data[k*size : (k+1)*size]
}

// System is an autonomous-in-form ODE right-hand side used by the
// integrators. Time is passed for completeness.
type System interface {
	Derive(x State, t float64) State
}
