package kan

import (
	"errors"
	"fmt"
)

// Common errors.
//
// Every error returned by the engine wraps one of these, so callers can
// classify failures with errors.Is.
var (
	ErrDomain              = errors.New("spline parameter outside [0, 1]")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrInvalidLearningRate = errors.New("learning rate must be positive")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrUnknownEdge         = errors.New("unknown edge")
)

// DomainError reports a spline parameter outside [0, 1].
type DomainError struct {
	T float64 // Offending parameter value
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: t=%g", ErrDomain, e.T)
}

// Unwrap returns ErrDomain.
func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// ShapeError reports a disagreement between an argument's size and the size an
// entity expects.
type ShapeError struct {
	Op   string // Operation that detected the mismatch (e.g. "layer.forward")
	What string // Dimension being checked (e.g. "rows", "inputs")
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %s: want %d, got %d", e.Op, ErrShapeMismatch, e.What, e.Want, e.Got)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func checkLearningRate(lr float64) error {
	if !(lr > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidLearningRate, lr)
	}
	return nil
}

func checkDomain(t float64) error {
	if !(t >= 0 && t <= 1) {
		return &DomainError{T: t}
	}
	return nil
}
