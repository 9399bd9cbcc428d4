package kan

import (
	"fmt"

	"github.com/born-ml/kan/internal/linalg"
)

// basisKey identifies one memoized Cox-de Boor evaluation.
//
// The parameter is keyed by exact value: nearby but distinct parameters are
// separate entries.
type basisKey struct {
	i      int
	degree int
	t      float64
}

// BSpline is a scalar B-spline over [0, 1].
//
// The knot vector is fixed at construction. Control points are the trainable
// coefficients and are updated in place by Edge.UpdateWeights; basis values
// depend only on the knots, so the memo survives weight updates.
//
// The memo grows by one entry set per distinct parameter value. Edges past
// the first layer see new parameters after every weight update, so long
// training runs should call ResetMemo periodically.
type BSpline struct {
	ControlPoints linalg.Vector // Coefficients to be trained
	Knots         linalg.Vector // len(Knots) == len(ControlPoints) + Degree + 1
	Degree        int

	memo map[basisKey]float64
}

// UniformKnots returns the open uniform knot vector k/(n+degree) for
// k = 0..n+degree.
func UniformKnots(n, degree int) linalg.Vector {
	m := n + degree
	knots := make(linalg.Vector, m+1)
	for k := range knots {
		knots[k] = float64(k) / float64(m)
	}
	return knots
}

// NewBSpline creates a spline of the given degree over uniform knots.
//
// The control points are copied. Panics if degree is negative.
//
// Example:
//
//	s := kan.NewBSpline(linalg.NewVector(1, 2, 3), 2)
//	y, err := s.Eval(0.5) // 2.0
func NewBSpline(controlPoints linalg.Vector, degree int) *BSpline {
	if degree < 0 {
		panic(fmt.Sprintf("kan: negative spline degree %d", degree))
	}
	return &BSpline{
		ControlPoints: controlPoints.Clone(),
		Knots:         UniformKnots(len(controlPoints), degree),
		Degree:        degree,
		memo:          make(map[basisKey]float64),
	}
}

// NewBSplineWithKnots creates a spline with an explicit knot vector.
//
// Returns a ShapeError if len(knots) != len(controlPoints) + degree + 1.
func NewBSplineWithKnots(controlPoints, knots linalg.Vector, degree int) (*BSpline, error) {
	if degree < 0 {
		return nil, fmt.Errorf("kan: negative spline degree %d", degree)
	}
	if want := len(controlPoints) + degree + 1; len(knots) != want {
		return nil, &ShapeError{Op: "bspline.new", What: "knots", Want: want, Got: len(knots)}
	}
	return &BSpline{
		ControlPoints: controlPoints.Clone(),
		Knots:         knots.Clone(),
		Degree:        degree,
		memo:          make(map[basisKey]float64),
	}, nil
}

// NumControlPoints returns the number of control points.
func (s *BSpline) NumControlPoints() int {
	return len(s.ControlPoints)
}

// Eval evaluates the spline at t: sum of ControlPoints[i] * Basis(i, Degree, t).
//
// Returns a DomainError if t is outside [0, 1].
func (s *BSpline) Eval(t float64) (float64, error) {
	if err := checkDomain(t); err != nil {
		return 0, err
	}
	var y float64
	for i, c := range s.ControlPoints {
		b, err := s.Basis(i, s.Degree, t)
		if err != nil {
			return 0, err
		}
		y += c * b
	}
	return y, nil
}

// Bases returns Basis(i, Degree, t) for every control point index i.
func (s *BSpline) Bases(t float64) (linalg.Vector, error) {
	if err := checkDomain(t); err != nil {
		return nil, err
	}
	out := make(linalg.Vector, len(s.ControlPoints))
	for i := range out {
		b, err := s.Basis(i, s.Degree, t)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Basis evaluates the i-th basis function of the given degree at t using the
// Cox-de Boor recursion. Terms with a zero knot span contribute 0.
//
// Results are memoized on (i, degree, t).
//
// Returns a DomainError if t is outside [0, 1] and ErrIndexOutOfRange if the
// support of the basis function runs past the knot vector.
func (s *BSpline) Basis(i, degree int, t float64) (float64, error) {
	if err := checkDomain(t); err != nil {
		return 0, err
	}
	if i < 0 || degree < 0 || i+degree+1 >= len(s.Knots) {
		return 0, fmt.Errorf("%w: basis(%d, %d) with %d knots", ErrIndexOutOfRange, i, degree, len(s.Knots))
	}
	return s.basis(i, degree, t), nil
}

// basis assumes t and the index range were validated by Basis.
func (s *BSpline) basis(i, degree int, t float64) float64 {
	key := basisKey{i: i, degree: degree, t: t}
	if v, ok := s.memo[key]; ok {
		return v
	}
	if s.memo == nil {
		s.memo = make(map[basisKey]float64)
	}

	k := s.Knots
	var v float64
	if degree == 0 {
		if k[i] <= t && t < k[i+1] {
			v = 1
		}
	} else {
		var left, right float64
		if d := k[i+degree] - k[i]; d != 0 {
			left = (t - k[i]) / d * s.basis(i, degree-1, t)
		}
		if d := k[i+degree+1] - k[i+1]; d != 0 {
			right = (k[i+degree+1] - t) / d * s.basis(i+1, degree-1, t)
		}
		v = left + right
	}

	s.memo[key] = v
	return v
}

// ResetMemo drops every cached basis value. Results are unaffected.
func (s *BSpline) ResetMemo() {
	s.memo = make(map[basisKey]float64)
}

// MemoSize returns the number of cached basis evaluations.
func (s *BSpline) MemoSize() int {
	return len(s.memo)
}
