package kan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kan/internal/linalg"
	"github.com/born-ml/kan/internal/parallel"
)

// twoNodeLayer builds a layer of two nodes with two incoming edges each. Node 0
// has one outgoing edge, node 1 has two.
func twoNodeLayer() (*Arena, *Layer) {
	arena := NewArena()
	spline := func(cps ...float64) *BSpline { return NewBSpline(linalg.NewVector(cps...), 2) }

	n0 := NewNode(arena, []EdgeID{
		arena.Add(NewEdge(0, 0, 0, spline(1, 2, 3))),
		arena.Add(NewEdge(1, 0, 0, spline(1.5, 2.5, 3.5))),
	}, []EdgeID{
		arena.Add(NewEdge(0, 0, 1, spline(0.5, 1.5, 2.5))),
	}, 0)
	n1 := NewNode(arena, []EdgeID{
		arena.Add(NewEdge(0, 1, 0, spline(0, 1, 2))),
		arena.Add(NewEdge(1, 1, 0, spline(0.5, 1.5, 2.5))),
	}, []EdgeID{
		arena.Add(NewEdge(1, 0, 1, spline(0, 1, 2))),
		arena.Add(NewEdge(1, 1, 1, spline(0, 1, 2))),
	}, 0)
	return arena, NewLayer(n0, n1)
}

func TestLayer_New(t *testing.T) {
	_, l := twoNodeLayer()
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []int{2, 2}, l.FanIns())

	l.AddNode(NewNode(NewArena(), nil, nil, 0))
	assert.Equal(t, 3, l.Len())
}

func TestLayer_ForwardBroadcastsByFanOut(t *testing.T) {
	_, l := twoNodeLayer()
	input := linalg.NewMatrix(linalg.NewVector(0.1, 0.2), linalg.NewVector(0.3, 0.4))

	out, err := l.Forward(input)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, out[0], 1)
	require.Len(t, out[1], 2)

	v0, err := l.Nodes[0].Forward(input[0])
	require.NoError(t, err)
	v1, err := l.Nodes[1].Forward(input[1])
	require.NoError(t, err)
	assert.Equal(t, linalg.Vector{v0}, out[0])
	assert.Equal(t, linalg.Vector{v1, v1}, out[1])
}

func TestLayer_ForwardShapeMismatch(t *testing.T) {
	_, l := twoNodeLayer()

	tests := map[string]linalg.Matrix{
		"too few rows":  {{0.1, 0.2}},
		"too many rows": {{0.1, 0.2}, {0.1, 0.2}, {0.1, 0.2}},
		"short row":     {{0.1, 0.2}, {0.1}},
		"long row":      {{0.1, 0.2, 0.3}, {0.1, 0.2}},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := l.Forward(input)
			assert.ErrorIs(t, err, ErrShapeMismatch)
			assert.ErrorIs(t, l.Backward(input, linalg.NewVector(1, 1)), ErrShapeMismatch)
		})
	}
}

func TestLayer_BackwardUpstreamLength(t *testing.T) {
	_, l := twoNodeLayer()
	input := linalg.NewMatrix(linalg.NewVector(0.1, 0.2), linalg.NewVector(0.3, 0.4))

	assert.ErrorIs(t, l.Backward(input, linalg.NewVector(1)), ErrShapeMismatch)
	assert.ErrorIs(t, l.Backward(input, linalg.NewVector(1, 2, 3)), ErrShapeMismatch)
}

func TestLayer_BackwardRoutesUpstreamPerNode(t *testing.T) {
	arena, l := twoNodeLayer()
	input := linalg.NewMatrix(linalg.NewVector(0.1, 0.2), linalg.NewVector(0.3, 0.4))
	upstream := linalg.NewVector(0.5, -1.5)

	require.NoError(t, l.Backward(input, upstream))

	for i, node := range l.Nodes {
		for k, id := range node.Incoming {
			e := mustEdge(t, arena, id)
			bases, err := e.Spline.Bases(input[i][k])
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64(bases.Scale(upstream[i])), []float64(e.Gradient), 1e-12)
		}
	}
}

func TestLayer_UpdateWeights(t *testing.T) {
	arena, l := twoNodeLayer()
	input := linalg.NewMatrix(linalg.NewVector(0.1, 0.2), linalg.NewVector(0.3, 0.4))

	require.NoError(t, l.Backward(input, linalg.NewVector(1, 1)))
	require.NoError(t, l.UpdateWeights(0.1))
	for _, node := range l.Nodes {
		for _, id := range node.Incoming {
			assert.Equal(t, linalg.Zeros(3), mustEdge(t, arena, id).Gradient)
		}
	}
	assert.ErrorIs(t, l.UpdateWeights(-1), ErrInvalidLearningRate)
}

func TestLayer_ParallelMatchesSequential(t *testing.T) {
	_, seq := twoNodeLayer()
	_, par := twoNodeLayer()
	par.Parallel = parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	input := linalg.NewMatrix(linalg.NewVector(0.1, 0.9), linalg.NewVector(0.65, 0.4))

	want, err := seq.Forward(input)
	require.NoError(t, err)
	got, err := par.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	bad := linalg.NewMatrix(linalg.NewVector(0.1, 0.9), linalg.NewVector(0.65, 1.4))
	_, err = par.Forward(bad)
	assert.ErrorIs(t, err, ErrDomain)
}
