package linalg

import (
	"fmt"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Vector is an ordered sequence of scalars.
type Vector []float64

// NewVector creates a vector holding the given elements.
func NewVector(elements ...float64) Vector {
	v := make(Vector, len(elements))
	copy(v, elements)
	return v
}

// Zeros creates a vector of n zeros.
func Zeros(n int) Vector {
	return make(Vector, n)
}

// Ones creates a vector of n ones.
func Ones(n int) Vector {
	return Full(n, 1)
}

// Full creates a vector of n copies of value.
func Full(n int, value float64) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = value
	}
	return v
}

// Random creates a vector of n values drawn uniformly from [0, 1).
func Random(n int, rng *rand.Rand) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}

// Len returns the number of elements.
func (v Vector) Len() int {
	return len(v)
}

// At returns the element at index i.
func (v Vector) At(i int) (float64, error) {
	if i < 0 || i >= len(v) {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(v))
	}
	return v[i], nil
}

// Set writes value at index i.
func (v Vector) Set(i int, value float64) error {
	if i < 0 || i >= len(v) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(v))
	}
	v[i] = value
	return nil
}

// Add returns v + other.
func (v Vector) Add(other Vector) (Vector, error) {
	if len(v) != len(other) {
		return nil, fmt.Errorf("%w: add %d and %d elements", ErrShapeMismatch, len(v), len(other))
	}
	return floats.AddTo(make(Vector, len(v)), v, other), nil
}

// Sub returns v - other.
func (v Vector) Sub(other Vector) (Vector, error) {
	if len(v) != len(other) {
		return nil, fmt.Errorf("%w: subtract %d and %d elements", ErrShapeMismatch, len(v), len(other))
	}
	return floats.SubTo(make(Vector, len(v)), v, other), nil
}

// AddScaledInPlace performs v += alpha * other without allocating.
func (v Vector) AddScaledInPlace(alpha float64, other Vector) error {
	if len(v) != len(other) {
		return fmt.Errorf("%w: add scaled %d and %d elements", ErrShapeMismatch, len(v), len(other))
	}
	floats.AddScaled(v, alpha, other)
	return nil
}

// Scale returns s * v.
func (v Vector) Scale(s float64) Vector {
	return floats.ScaleTo(make(Vector, len(v)), s, v)
}

// Div returns v / s.
func (v Vector) Div(s float64) (Vector, error) {
	if s == 0 {
		return nil, ErrDivideByZero
	}
	return floats.ScaleTo(make(Vector, len(v)), 1/s, v), nil
}

// Dot returns the inner product of v and other.
func (v Vector) Dot(other Vector) (float64, error) {
	if len(v) != len(other) {
		return 0, fmt.Errorf("%w: dot %d and %d elements", ErrShapeMismatch, len(v), len(other))
	}
	return floats.Dot(v, other), nil
}

// Sum returns the sum of all elements. The sum of an empty vector is 0.
func (v Vector) Sum() float64 {
	return floats.Sum(v)
}

// Fill sets every element to value.
func (v Vector) Fill(value float64) {
	for i := range v {
		v[i] = value
	}
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return NewVector(v...)
}

// Equal reports whether v and other have the same length and elements.
func (v Vector) Equal(other Vector) bool {
	return floats.Equal(v, other)
}

// EqualApprox reports whether v and other match element-wise within tol.
func (v Vector) EqualApprox(other Vector, tol float64) bool {
	return floats.EqualApprox(v, other, tol)
}

// ToMatrix returns v as a single-row matrix.
func (v Vector) ToMatrix() Matrix {
	return Matrix{v.Clone()}
}

// String formats the vector as [a, b, c].
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
