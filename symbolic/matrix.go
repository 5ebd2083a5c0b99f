package symbolic

import (
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ============================================================
// Matrix — symbolic matrix function
// ============================================================

// Matrix is a dense rows×cols array of expressions. Every operation returns
// a fresh matrix; Set exists for building fixtures and must not be used on a
// matrix that has been handed to another component.
type Matrix struct {
	rows, cols int
	data       [][]*Expr
}

// NewMatrix returns the rows×cols zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("symbolic: invalid shape %dx%d", rows, cols))
	}
	data := make([][]*Expr, rows)
	for i := range data {
		data[i] = make([]*Expr, cols)
		for j := range data[i] {
			data[i][j] = zero
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// MatrixFromSlice builds a matrix from row-major entries.
func MatrixFromSlice(rows, cols int, entries []*Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("symbolic: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i][j] = entries[i*cols+j]
		}
	}
	return m
}

// FromRows builds a matrix from equally long rows.
func FromRows(rows ...[]*Expr) *Matrix {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("symbolic: FromRows row %d has %d entries, want %d", i, len(r), cols))
		}
		copy(m.data[i], r)
	}
	return m
}

// FromInts builds a constant integer matrix.
func FromInts(a [][]int64) *Matrix {
	cols := 0
	if len(a) > 0 {
		cols = len(a[0])
	}
	m := NewMatrix(len(a), cols)
	for i := range a {
		for j, v := range a[i] {
			if v != 0 {
				m.data[i][j] = N(v)
			}
		}
	}
	return m
}

// Identity returns the n×n identity.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i][i] = N(1)
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) *Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}

func (m *Matrix) Set(row, col int, val *Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) clone() *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		copy(out.data[i], m.data[i])
	}
	return out
}

func (m *Matrix) apply(f func(*Expr) *Expr) *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[i][j] = f(m.data[i][j])
		}
	}
	return out
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i][j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) LaTeX() string {
	var sb strings.Builder
	sb.WriteString("\\begin{pmatrix}")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(" \\\\ ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(m.data[i][j].LaTeX())
		}
	}
	sb.WriteString("\\end{pmatrix}")
	return sb.String()
}

func (m *Matrix) cells() [][]string {
	rows := make([][]string, m.rows)
	for i := range rows {
		rows[i] = make([]string, m.cols)
		for j := range rows[i] {
			rows[i][j] = m.data[i][j].String()
		}
	}
	return rows
}

// MarshalJSON encodes the matrix as rows of expression strings.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.cells())
}

// MarshalYAML encodes the matrix as rows of expression strings.
func (m *Matrix) MarshalYAML() (any, error) {
	return m.cells(), nil
}

// ============================================================
// Arithmetic
// ============================================================

func (m *Matrix) MatAdd(other *Matrix) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic("symbolic: matrix dimension mismatch in MatAdd")
	}
	out := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[i][j] = m.data[i][j].Add(other.data[i][j])
		}
	}
	return out
}

func (m *Matrix) MatSub(other *Matrix) *Matrix {
	return m.MatAdd(other.Neg())
}

func (m *Matrix) MatMul(other *Matrix) *Matrix {
	if m.cols != other.rows {
		panic("symbolic: matrix dimension mismatch in MatMul")
	}
	out := NewMatrix(m.rows, other.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < other.cols; j++ {
			sum := zero
			for k := 0; k < m.cols; k++ {
				sum = sum.Add(m.data[i][k].Mul(other.data[k][j]))
			}
			out.data[i][j] = sum
		}
	}
	return out
}

func (m *Matrix) Neg() *Matrix {
	return m.apply((*Expr).Neg)
}

func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j][i] = m.data[i][j]
		}
	}
	return out
}

// Inverse runs Gauss–Jordan elimination. Pivots are chosen among the
// exactly non-zero entries of a column, smallest expression first.
func (m *Matrix) Inverse() (*Matrix, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("Inverse: %dx%d: %w", m.rows, m.cols, ErrNonSquare)
	}
	n := m.rows
	a := m.clone().data
	inv := Identity(n).data
	for col := 0; col < n; col++ {
		p := -1
		for r := col; r < n; r++ {
			if a[r][col].IsZero() {
				continue
			}
			if p < 0 || a[r][col].size() < a[p][col].size() {
				p = r
			}
		}
		if p < 0 {
			return nil, fmt.Errorf("Inverse: no pivot in column %d: %w", col, ErrSingular)
		}
		a[p], a[col] = a[col], a[p]
		inv[p], inv[col] = inv[col], inv[p]

		pv := a[col][col].Inv()
		for c := 0; c < n; c++ {
			a[col][c] = a[col][c].Mul(pv)
			inv[col][c] = inv[col][c].Mul(pv)
		}
		for r := 0; r < n; r++ {
			f := a[r][col]
			if r == col || f.IsZero() {
				continue
			}
			for c := 0; c < n; c++ {
				a[r][c] = a[r][c].Sub(f.Mul(a[col][c]))
				inv[r][c] = inv[r][c].Sub(f.Mul(inv[col][c]))
			}
		}
	}
	out := &Matrix{rows: n, cols: n, data: inv}
	return out.Simplify(), nil
}

// ApplyDiff differentiates every entry with respect to varName.
func (m *Matrix) ApplyDiff(varName string) *Matrix {
	return m.apply(func(e *Expr) *Expr { return e.Diff(varName).Simplify() })
}

func (m *Matrix) Simplify() *Matrix {
	return m.apply((*Expr).Simplify)
}

func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if !m.data[i][j].Equal(other.data[i][j]) {
				return false
			}
		}
	}
	return true
}

// ============================================================
// Blocks and structural checks
// ============================================================

// Block returns rows [r0,r1) and columns [c0,c1).
func (m *Matrix) Block(r0, r1, c0, c1 int) *Matrix {
	if r0 < 0 || r1 > m.rows || r0 > r1 || c0 < 0 || c1 > m.cols || c0 > c1 {
		panic(fmt.Sprintf("symbolic: block [%d:%d,%d:%d] out of range for %dx%d", r0, r1, c0, c1, m.rows, m.cols))
	}
	out := NewMatrix(r1-r0, c1-c0)
	for i := r0; i < r1; i++ {
		copy(out.data[i-r0], m.data[i][c0:c1])
	}
	return out
}

// WithBlock returns a copy of m with b written at (r0, c0).
func (m *Matrix) WithBlock(r0, c0 int, b *Matrix) *Matrix {
	if r0 < 0 || c0 < 0 || r0+b.rows > m.rows || c0+b.cols > m.cols {
		panic(fmt.Sprintf("symbolic: %dx%d block at (%d,%d) does not fit %dx%d", b.rows, b.cols, r0, c0, m.rows, m.cols))
	}
	out := m.clone()
	for i := 0; i < b.rows; i++ {
		copy(out.data[r0+i][c0:], b.data[i])
	}
	return out
}

// IntEntries returns the entries as integers, failing on the first entry
// that is not a literal integer constant.
func (m *Matrix) IntEntries() ([][]int64, error) {
	out := make([][]int64, m.rows)
	for i := 0; i < m.rows; i++ {
		out[i] = make([]int64, m.cols)
		for j := 0; j < m.cols; j++ {
			v, ok := m.data[i][j].Int()
			if !ok {
				return nil, fmt.Errorf("entry (%d,%d) = %s: %w", i, j, m.data[i][j], ErrNotInteger)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// Eval evaluates every entry numerically.
func (m *Matrix) Eval(env map[string]float64) (*mat.Dense, error) {
	if m.rows == 0 || m.cols == 0 {
		return nil, ErrEmpty
	}
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			v, err := m.data[i][j].Eval(env)
			if err != nil {
				return nil, fmt.Errorf("entry (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Algebra is the matrix factory used by the reduction engine.
type Algebra struct{}

func (Algebra) Identity(n int) *Matrix       { return Identity(n) }
func (Algebra) Zeros(rows, cols int) *Matrix { return NewMatrix(rows, cols) }
func (Algebra) FromInts(a [][]int64) *Matrix { return FromInts(a) }
