package kan

import (
	"math"
	"math/rand"

	"github.com/born-ml/kan/internal/linalg"
)

// Defaults for StandardEdge.
const (
	StandardControlPoints = 5
	StandardDegree        = 2
	InitScale             = 0.1 // Control points start uniform in [0, InitScale)
)

// SiLU is the fixed residual activation x / (1 + e^-x).
func SiLU(x float64) float64 {
	return x / (1 + math.Exp(-x))
}

// Edge is one learnable activation phi(t) = spline(t) + SiLU(t) connecting
// node Start of one layer to node End of the next.
//
// Gradient holds d(loss)/d(control point) from the last Backward call and is
// cleared by UpdateWeights.
type Edge struct {
	Start    int
	End      int
	Layer    int
	Spline   *BSpline
	Gradient linalg.Vector
}

// NewEdge creates an edge owning spline, with a zero gradient.
func NewEdge(start, end, layer int, spline *BSpline) *Edge {
	return &Edge{
		Start:    start,
		End:      end,
		Layer:    layer,
		Spline:   spline,
		Gradient: linalg.Zeros(spline.NumControlPoints()),
	}
}

// StandardEdge creates an edge with StandardControlPoints control points of
// degree StandardDegree, drawn uniformly from [0, InitScale).
func StandardEdge(start, end, layer int, rng *rand.Rand) *Edge {
	cps := linalg.Random(StandardControlPoints, rng).Scale(InitScale)
	return NewEdge(start, end, layer, NewBSpline(cps, StandardDegree))
}

// Forward evaluates the activation at t.
//
// Returns a DomainError if t is outside [0, 1].
func (e *Edge) Forward(t float64) (float64, error) {
	y, err := e.Spline.Eval(t)
	if err != nil {
		return 0, err
	}
	return y + SiLU(t), nil
}

// ForwardBatch applies Forward to every element of ts.
func (e *Edge) ForwardBatch(ts linalg.Vector) (linalg.Vector, error) {
	out := make(linalg.Vector, len(ts))
	for i, t := range ts {
		y, err := e.Forward(t)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

// Backward stores the gradient of the loss with respect to each control point:
//
//	Gradient[i] = Basis(i, Degree, t) * upstream
//
// A second call before UpdateWeights replaces the previous gradient.
func (e *Edge) Backward(t, upstream float64) error {
	bases, err := e.Spline.Bases(t)
	if err != nil {
		return err
	}
	e.Gradient = bases.Scale(upstream)
	return nil
}

// UpdateWeights takes one gradient descent step on the control points and
// zeroes the gradient:
//
//	ControlPoints[i] -= lr * Gradient[i]
//
// Returns ErrInvalidLearningRate, with no state change, if lr <= 0.
func (e *Edge) UpdateWeights(lr float64) error {
	if err := checkLearningRate(lr); err != nil {
		return err
	}
	if err := e.Spline.ControlPoints.AddScaledInPlace(-lr, e.Gradient); err != nil {
		return &ShapeError{
			Op:   "edge.update",
			What: "gradient",
			Want: e.Spline.NumControlPoints(),
			Got:  len(e.Gradient),
		}
	}
	e.Gradient = linalg.Zeros(e.Spline.NumControlPoints())
	return nil
}
