package kan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/kan/internal/linalg"
)

// NumericalGradient estimates d(upstream * Forward(t)) / d(ControlPoints) by
// central finite differences. The control points are restored afterwards.
//
// It is the reference Backward is checked against.
func (e *Edge) NumericalGradient(t, upstream float64) (linalg.Vector, error) {
	if err := checkDomain(t); err != nil {
		return nil, err
	}
	original := e.Spline.ControlPoints
	defer func() { e.Spline.ControlPoints = original }()

	var evalErr error
	f := func(cps []float64) float64 {
		e.Spline.ControlPoints = cps
		y, err := e.Forward(t)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return upstream * y
	}

	grad := fd.Gradient(nil, f, original.Clone(), &fd.Settings{Formula: fd.Central})
	if evalErr != nil {
		return nil, evalErr
	}
	return grad, nil
}

// CheckGradient compares Backward against NumericalGradient and returns the
// largest absolute difference. Backward overwrites the edge gradient.
func (e *Edge) CheckGradient(t, upstream float64) (float64, error) {
	if err := e.Backward(t, upstream); err != nil {
		return 0, err
	}
	numeric, err := e.NumericalGradient(t, upstream)
	if err != nil {
		return 0, err
	}
	if len(numeric) != len(e.Gradient) {
		return 0, fmt.Errorf("%w: numeric %d, analytic %d", ErrShapeMismatch, len(numeric), len(e.Gradient))
	}
	var worst float64
	for i := range numeric {
		worst = math.Max(worst, math.Abs(numeric[i]-e.Gradient[i]))
	}
	return worst, nil
}
