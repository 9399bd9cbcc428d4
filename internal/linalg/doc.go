// Package linalg provides the small vector and matrix toolkit used by the KAN engine.
//
// Vectors are plain float64 slices with checked element-wise arithmetic. Matrices are
// ordered rows of vectors: rows may have different lengths, because a KAN layer emits one
// row per node sized by that node's fan-out. Operations that need a rectangular shape
// (transpose, products) reject ragged input with ErrShapeMismatch and delegate the
// arithmetic to gonum.
//
// Example:
//
//	a := linalg.NewVector(1, 2, 3)
//	b := linalg.Ones(3)
//	sum, err := a.Add(b) // [2 3 4]
//
//	m := linalg.Identity(3)
//	y, err := m.MulVec(a) // [1 2 3]
package linalg

import "errors"

// Common errors.
var (
	ErrShapeMismatch   = errors.New("linalg: shape mismatch")
	ErrIndexOutOfRange = errors.New("linalg: index out of range")
	ErrDivideByZero    = errors.New("linalg: division by zero")
)
