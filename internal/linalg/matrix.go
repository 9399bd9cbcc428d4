package linalg

import (
	"fmt"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an ordered sequence of rows.
//
// Rows are not required to share a length. Shape reports -1 columns for a
// ragged matrix, and operations that need a rectangle return ErrShapeMismatch.
type Matrix []Vector

// NewMatrix creates a matrix from rows. Rows are copied.
func NewMatrix(rows ...Vector) Matrix {
	m := make(Matrix, len(rows))
	for i, r := range rows {
		m[i] = r.Clone()
	}
	return m
}

// ZerosMatrix creates a rows x cols matrix of zeros.
func ZerosMatrix(rows, cols int) Matrix {
	return FullMatrix(rows, cols, 0)
}

// OnesMatrix creates a rows x cols matrix of ones.
func OnesMatrix(rows, cols int) Matrix {
	return FullMatrix(rows, cols, 1)
}

// FullMatrix creates a rows x cols matrix filled with value.
func FullMatrix(rows, cols int, value float64) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = Full(cols, value)
	}
	return m
}

// RandomMatrix creates a rows x cols matrix of values drawn uniformly from [0, 1).
func RandomMatrix(rows, cols int, rng *rand.Rand) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = Random(cols, rng)
	}
	return m
}

// Identity creates an n x n identity matrix.
func Identity(n int) Matrix {
	m := ZerosMatrix(n, n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	return len(m)
}

// Shape returns (rows, cols). cols is -1 when rows differ in length.
// An empty matrix has shape (0, 0).
func (m Matrix) Shape() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	cols = len(m[0])
	for _, r := range m[1:] {
		if len(r) != cols {
			return len(m), -1
		}
	}
	return len(m), cols
}

// IsRagged reports whether rows differ in length.
func (m Matrix) IsRagged() bool {
	_, cols := m.Shape()
	return cols < 0
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) (Vector, error) {
	if i < 0 || i >= len(m) {
		return nil, fmt.Errorf("%w: row %d, rows %d", ErrIndexOutOfRange, i, len(m))
	}
	return m[i].Clone(), nil
}

// SetRow replaces row i with a copy of v.
func (m Matrix) SetRow(i int, v Vector) error {
	if i < 0 || i >= len(m) {
		return fmt.Errorf("%w: row %d, rows %d", ErrIndexOutOfRange, i, len(m))
	}
	m[i] = v.Clone()
	return nil
}

// Col returns column j. Every row must have at least j+1 elements.
func (m Matrix) Col(j int) (Vector, error) {
	col := make(Vector, len(m))
	for i, r := range m {
		if j < 0 || j >= len(r) {
			return nil, fmt.Errorf("%w: column %d, row %d has %d", ErrIndexOutOfRange, j, i, len(r))
		}
		col[i] = r[j]
	}
	return col, nil
}

// SetCol writes v into column j. len(v) must equal the row count.
func (m Matrix) SetCol(j int, v Vector) error {
	if len(v) != len(m) {
		return fmt.Errorf("%w: column of %d for %d rows", ErrShapeMismatch, len(v), len(m))
	}
	for i, r := range m {
		if j < 0 || j >= len(r) {
			return fmt.Errorf("%w: column %d, row %d has %d", ErrIndexOutOfRange, j, i, len(r))
		}
		r[j] = v[i]
	}
	return nil
}

// At returns the element at (i, j).
func (m Matrix) At(i, j int) (float64, error) {
	if i < 0 || i >= len(m) {
		return 0, fmt.Errorf("%w: row %d, rows %d", ErrIndexOutOfRange, i, len(m))
	}
	return m[i].At(j)
}

// Set writes value at (i, j).
func (m Matrix) Set(i, j int, value float64) error {
	if i < 0 || i >= len(m) {
		return fmt.Errorf("%w: row %d, rows %d", ErrIndexOutOfRange, i, len(m))
	}
	return m[i].Set(j, value)
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	return NewMatrix(m...)
}

// Equal reports whether both matrices have identical rows.
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if !m[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Dense converts a rectangular matrix to a gonum dense matrix.
func (m Matrix) Dense() (*mat.Dense, error) {
	rows, cols := m.Shape()
	if cols < 0 {
		return nil, fmt.Errorf("%w: ragged matrix", ErrShapeMismatch)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty matrix %dx%d", ErrShapeMismatch, rows, cols)
	}
	data := make([]float64, 0, rows*cols)
	for _, r := range m {
		data = append(data, r...)
	}
	return mat.NewDense(rows, cols, data), nil
}

// FromDense converts any gonum matrix into a Matrix.
func FromDense(d mat.Matrix) Matrix {
	rows, _ := d.Dims()
	m := make(Matrix, rows)
	for i := range m {
		m[i] = mat.Row(nil, i, d)
	}
	return m
}

// Transpose returns the transpose of a rectangular matrix.
func (m Matrix) Transpose() (Matrix, error) {
	d, err := m.Dense()
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	return FromDense(d.T()), nil
}

// MulVec returns m * v.
func (m Matrix) MulVec(v Vector) (Vector, error) {
	d, err := m.Dense()
	if err != nil {
		return nil, fmt.Errorf("mulvec: %w", err)
	}
	_, cols := d.Dims()
	if cols != len(v) {
		return nil, fmt.Errorf("%w: mulvec %d columns by %d elements", ErrShapeMismatch, cols, len(v))
	}
	var out mat.VecDense
	out.MulVec(d, mat.NewVecDense(len(v), v.Clone()))
	return Vector(out.RawVector().Data), nil
}

// Mul returns m * other.
func (m Matrix) Mul(other Matrix) (Matrix, error) {
	a, err := m.Dense()
	if err != nil {
		return nil, fmt.Errorf("mul: %w", err)
	}
	b, err := other.Dense()
	if err != nil {
		return nil, fmt.Errorf("mul: %w", err)
	}
	_, ac := a.Dims()
	br, _ := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("%w: mul %d columns by %d rows", ErrShapeMismatch, ac, br)
	}
	var out mat.Dense
	out.Mul(a, b)
	return FromDense(&out), nil
}

// String formats the matrix one row per line.
func (m Matrix) String() string {
	lines := make([]string, len(m))
	for i, r := range m {
		lines[i] = r.String()
	}
	return "[" + strings.Join(lines, "\n ") + "]"
}
