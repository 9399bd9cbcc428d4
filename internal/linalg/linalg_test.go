package linalg

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector_AddSub(t *testing.T) {
	a := NewVector(1, 2, 3)
	b := NewVector(4, 5, 6)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, Vector{5, 7, 9}, sum)

	diff, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, Vector{3, 3, 3}, diff)

	// Operands are not mutated.
	assert.Equal(t, Vector{1, 2, 3}, a)

	_, err = a.Add(NewVector(1))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = a.Sub(NewVector(1, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestVector_ScaleDiv(t *testing.T) {
	v := NewVector(2, -4)
	assert.Equal(t, Vector{1, -2}, v.Scale(0.5))

	q, err := v.Div(2)
	require.NoError(t, err)
	assert.Equal(t, Vector{1, -2}, q)

	_, err = v.Div(0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestVector_Indexing(t *testing.T) {
	v := Zeros(3)
	require.NoError(t, v.Set(1, 7))

	x, err := v.At(1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, x)

	_, err = v.At(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, v.Set(-1, 0), ErrIndexOutOfRange)
}

func TestVector_Constructors(t *testing.T) {
	assert.Equal(t, Vector{0, 0}, Zeros(2))
	assert.Equal(t, Vector{1, 1, 1}, Ones(3))
	assert.Equal(t, 6.0, Ones(6).Sum())

	r := Random(100, rand.New(rand.NewSource(1)))
	for _, x := range r {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestVector_DotAndAddScaled(t *testing.T) {
	a := NewVector(1, 2, 3)
	d, err := a.Dot(NewVector(1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 6.0, d)

	_, err = a.Dot(NewVector(1))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, a.AddScaledInPlace(-2, NewVector(1, 1, 1)))
	assert.Equal(t, Vector{-1, 0, 1}, a)
	assert.ErrorIs(t, a.AddScaledInPlace(1, Zeros(2)), ErrShapeMismatch)
}

func TestMatrix_Shape(t *testing.T) {
	m := ZerosMatrix(2, 3)
	rows, cols := m.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.False(t, m.IsRagged())

	ragged := NewMatrix(NewVector(1, 2), NewVector(3))
	rows, cols = ragged.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, -1, cols)
	assert.True(t, ragged.IsRagged())

	rows, cols = Matrix{}.Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestMatrix_RowsAndCols(t *testing.T) {
	m := NewMatrix(NewVector(1, 2), NewVector(3, 4))

	row, err := m.Row(1)
	require.NoError(t, err)
	assert.Equal(t, Vector{3, 4}, row)

	col, err := m.Col(0)
	require.NoError(t, err)
	assert.Equal(t, Vector{1, 3}, col)

	require.NoError(t, m.SetRow(0, NewVector(9, 9)))
	require.NoError(t, m.SetCol(1, NewVector(5, 6)))
	assert.Equal(t, Matrix{{9, 5}, {3, 6}}, m)

	assert.ErrorIs(t, m.SetCol(0, NewVector(1)), ErrShapeMismatch)
	_, err = m.Row(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.Col(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.At(0, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMatrix_Products(t *testing.T) {
	m := NewMatrix(NewVector(1, 2), NewVector(3, 4))

	y, err := m.MulVec(NewVector(1, 1))
	require.NoError(t, err)
	assert.Equal(t, Vector{3, 7}, y)

	p, err := m.Mul(Identity(2))
	require.NoError(t, err)
	assert.True(t, p.Equal(m))

	tr, err := m.Transpose()
	require.NoError(t, err)
	assert.Equal(t, Matrix{{1, 3}, {2, 4}}, tr)

	_, err = m.MulVec(NewVector(1, 2, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = m.Mul(OnesMatrix(3, 1))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	ragged := NewMatrix(NewVector(1, 2), NewVector(3))
	_, err = ragged.Transpose()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
