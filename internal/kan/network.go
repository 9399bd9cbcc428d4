package kan

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/kan/internal/linalg"
	"github.com/born-ml/kan/internal/parallel"
)

// Network is a Kolmogorov-Arnold Network: an ordered list of layers whose
// edges live in one Arena. The last layer holds a single node whose value is
// the network's prediction.
//
// Example:
//
//	net := kan.Standard(2, 4)
//	loss, err := net.Train(linalg.NewVector(0.2, 0.7), 0.5, 0.01)
//	y, err := net.Predict(linalg.NewVector(0.2, 0.7))
type Network struct {
	Arena  *Arena
	Layers []*Layer
}

// NewNetwork creates a network over arena from layers in evaluation order.
func NewNetwork(arena *Arena, layers ...*Layer) *Network {
	return &Network{Arena: arena, Layers: layers}
}

// AddLayer appends a layer.
func (n *Network) AddLayer(l *Layer) {
	n.Layers = append(n.Layers, l)
}

// Standard builds a two-layer network with randomly initialized edges: nHidden
// nodes each fed by all nInputs inputs, then one output node fed by every
// hidden node. The output node carries one sink edge so that the final layer
// emits a single entry.
//
// Panics if nInputs or nHidden is less than 1.
func Standard(nInputs, nHidden int) *Network {
	//nolint:gosec // G404: math/rand is fine for weight initialization
	return StandardWithRand(nInputs, nHidden, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// StandardWithRand is Standard drawing initial control points from rng.
func StandardWithRand(nInputs, nHidden int, rng *rand.Rand) *Network {
	return Build(nInputs, []int{nHidden, 1}, rng)
}

// Build creates a fully connected network. widths lists the node count of
// each layer and must end in 1. Node j of layer l receives one StandardEdge
// (Layer l) from every node of layer l-1, or from every input feature when
// l is 0. The output node gets a sink edge on layer len(widths).
//
// Panics on a non-positive size or if the last width is not 1.
func Build(nInputs int, widths []int, rng *rand.Rand) *Network {
	if nInputs < 1 || len(widths) == 0 || widths[len(widths)-1] != 1 {
		panic(fmt.Sprintf("kan: invalid topology: %d inputs, widths %v (last width must be 1)", nInputs, widths))
	}
	arena := NewArena()
	net := NewNetwork(arena)

	var prev []*Node
	fanIn := nInputs
	for l, width := range widths {
		if width < 1 {
			panic(fmt.Sprintf("kan: invalid topology: layer %d has width %d", l, width))
		}
		nodes := make([]*Node, width)
		for j := range nodes {
			nodes[j] = NewNode(arena, nil, nil, l)
			for i := 0; i < fanIn; i++ {
				id := arena.Add(StandardEdge(i, j, l, rng))
				nodes[j].AddIncoming(id)
				if prev != nil {
					prev[i].AddOutgoing(id)
				}
			}
		}
		net.AddLayer(NewLayer(nodes...))
		prev, fanIn = nodes, width
	}
	prev[0].AddOutgoing(arena.Add(StandardEdge(0, 0, len(widths), rng)))

	return net
}

// SetParallel sets the node fan-out policy of every layer.
func (n *Network) SetParallel(cfg parallel.Config) {
	for _, l := range n.Layers {
		l.Parallel = cfg
	}
}

// NumInputs returns the number of features ExpandInput expects: one more
// than the largest Start index among first-layer incoming edges.
func (n *Network) NumInputs() int {
	if len(n.Layers) == 0 {
		return 0
	}
	count := 0
	for _, node := range n.Layers[0].Nodes {
		for _, id := range node.Incoming {
			if e, err := n.Arena.Edge(id); err == nil && e.Start+1 > count {
				count = e.Start + 1
			}
		}
	}
	return count
}

// ExpandInput builds the first-layer input matrix from a feature vector: row j
// column k is x[Start] of the k-th incoming edge of first-layer node j.
func (n *Network) ExpandInput(x linalg.Vector) (linalg.Matrix, error) {
	if len(n.Layers) == 0 {
		return nil, &ShapeError{Op: "network.expand", What: "layers", Want: 1, Got: 0}
	}
	first := n.Layers[0]
	in := make(linalg.Matrix, first.Len())
	for j, node := range first.Nodes {
		row := make(linalg.Vector, node.FanIn())
		for k, id := range node.Incoming {
			e, err := n.Arena.Edge(id)
			if err != nil {
				return nil, err
			}
			if e.Start < 0 || e.Start >= len(x) {
				return nil, &ShapeError{Op: "network.expand", What: "features", Want: e.Start + 1, Got: len(x)}
			}
			row[k] = x[e.Start]
		}
		in[j] = row
	}
	return in, nil
}

// route turns the output of layer l into the input of layer l+1. Each
// incoming edge of the next layer reads the entry its origin node emitted for
// it.
func (n *Network) route(l int, out linalg.Matrix) (linalg.Matrix, error) {
	src, dst := n.Layers[l], n.Layers[l+1]
	next := make(linalg.Matrix, dst.Len())
	for j, node := range dst.Nodes {
		row := make(linalg.Vector, node.FanIn())
		for k, id := range node.Incoming {
			e, err := n.Arena.Edge(id)
			if err != nil {
				return nil, err
			}
			if e.Start < 0 || e.Start >= src.Len() || e.Start >= len(out) {
				return nil, fmt.Errorf("%w: edge %d starts at node %d, layer %d has %d nodes",
					ErrShapeMismatch, id, e.Start, l, src.Len())
			}
			p := indexOf(src.Nodes[e.Start].Outgoing, id)
			if p < 0 || p >= len(out[e.Start]) {
				return nil, fmt.Errorf("%w: edge %d is not outgoing from node %d of layer %d",
					ErrShapeMismatch, id, e.Start, l)
			}
			row[k] = out[e.Start][p]
		}
		next[j] = row
	}
	return next, nil
}

func indexOf(ids []EdgeID, id EdgeID) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}

// forward runs every layer and returns the input each layer consumed together
// with the prediction.
func (n *Network) forward(input linalg.Matrix) ([]linalg.Matrix, float64, error) {
	if len(n.Layers) == 0 {
		return nil, 0, &ShapeError{Op: "network.forward", What: "layers", Want: 1, Got: 0}
	}
	last := len(n.Layers) - 1
	inputs := make([]linalg.Matrix, len(n.Layers))
	cur := input
	for l := 0; l < last; l++ {
		inputs[l] = cur
		out, err := n.Layers[l].Forward(cur)
		if err != nil {
			return nil, 0, fmt.Errorf("layer %d: %w", l, err)
		}
		if cur, err = n.route(l, out); err != nil {
			return nil, 0, fmt.Errorf("layer %d: %w", l, err)
		}
	}

	inputs[last] = cur
	out, err := n.Layers[last].Forward(cur)
	if err != nil {
		return nil, 0, fmt.Errorf("layer %d: %w", last, err)
	}
	if len(out) != 1 {
		return nil, 0, &ShapeError{Op: "network.forward", What: "output nodes", Want: 1, Got: len(out)}
	}
	if len(out[0]) == 0 {
		return nil, 0, &ShapeError{Op: "network.forward", What: "output entries", Want: 1, Got: 0}
	}
	return inputs, out[0][0], nil
}

// Forward feeds input through every layer and returns the prediction.
func (n *Network) Forward(input linalg.Matrix) (float64, error) {
	_, y, err := n.forward(input)
	return y, err
}

// Predict expands x with ExpandInput and runs Forward.
func (n *Network) Predict(x linalg.Vector) (float64, error) {
	in, err := n.ExpandInput(x)
	if err != nil {
		return 0, err
	}
	return n.Forward(in)
}

// Backward computes edge gradients for the squared error against target.
//
// The forward pass is replayed to cache every layer's input. The output
// gradient 2*(prediction-target) goes to the last layer; before each earlier
// layer the upstream vector is replaced by its sum, repeated once per node of
// that layer. This spreads the total gradient evenly instead of following
// each node's fan-out, and is exact only when every layer before the last
// feeds the next one through a single path per node.
func (n *Network) Backward(input linalg.Matrix, target float64) error {
	_, err := n.backward(input, target)
	return err
}

func (n *Network) backward(input linalg.Matrix, target float64) (float64, error) {
	inputs, prediction, err := n.forward(input)
	if err != nil {
		return 0, err
	}

	upstream := linalg.NewVector(2 * (prediction - target))
	for l := len(n.Layers) - 1; l >= 0; l-- {
		if err := n.Layers[l].Backward(inputs[l], upstream); err != nil {
			return 0, fmt.Errorf("layer %d: %w", l, err)
		}
		if l > 0 {
			upstream = linalg.Full(n.Layers[l-1].Len(), upstream.Sum())
		}
	}
	return prediction, nil
}

// UpdateEdges applies one gradient descent step to every layer.
func (n *Network) UpdateEdges(lr float64) error {
	if err := checkLearningRate(lr); err != nil {
		return err
	}
	for l, layer := range n.Layers {
		if err := layer.UpdateWeights(lr); err != nil {
			return fmt.Errorf("layer %d: %w", l, err)
		}
	}
	return nil
}

// LossSingle returns the squared error of one prediction.
func (n *Network) LossSingle(x linalg.Vector, target float64) (float64, error) {
	y, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	d := y - target
	return d * d, nil
}

// Loss returns the mean squared error over samples, one sample per row.
func (n *Network) Loss(samples linalg.Matrix, targets linalg.Vector) (float64, error) {
	if samples.Rows() != len(targets) {
		return 0, &ShapeError{Op: "network.loss", What: "targets", Want: samples.Rows(), Got: len(targets)}
	}
	if samples.Rows() == 0 {
		return 0, &ShapeError{Op: "network.loss", What: "samples", Want: 1, Got: 0}
	}
	var sum float64
	for i, x := range samples {
		l, err := n.LossSingle(x, targets[i])
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		sum += l
	}
	return sum / float64(samples.Rows()), nil
}

// Train runs Backward then UpdateEdges for one sample and returns the loss
// measured before the update.
func (n *Network) Train(x linalg.Vector, target, lr float64) (float64, error) {
	if err := checkLearningRate(lr); err != nil {
		return 0, err
	}
	in, err := n.ExpandInput(x)
	if err != nil {
		return 0, err
	}
	prediction, err := n.backward(in, target)
	if err != nil {
		return 0, err
	}
	if err := n.UpdateEdges(lr); err != nil {
		return 0, err
	}
	d := prediction - target
	return d * d, nil
}

// ResetMemo clears the basis memo of every edge evaluated by the network.
func (n *Network) ResetMemo() {
	for _, l := range n.Layers {
		l.ResetMemo()
	}
}

// MemoSize returns the number of cached basis values across all edges.
func (n *Network) MemoSize() int {
	total := 0
	for _, e := range n.Arena.All() {
		total += e.Spline.MemoSize()
	}
	return total
}

// NumParameters returns the number of trainable control points, counting the
// incoming edges of every layer.
func (n *Network) NumParameters() int {
	total := 0
	for _, l := range n.Layers {
		for _, node := range l.Nodes {
			for _, id := range node.Incoming {
				if e, err := n.Arena.Edge(id); err == nil {
					total += e.Spline.NumControlPoints()
				}
			}
		}
	}
	return total
}

// NumSinkEdges returns the number of outgoing edges of the last layer. They
// only size the output row and are never evaluated.
func (n *Network) NumSinkEdges() int {
	if len(n.Layers) == 0 {
		return 0
	}
	total := 0
	for _, node := range n.Layers[len(n.Layers)-1].Nodes {
		total += node.FanOut()
	}
	return total
}

// Describe returns a one-line summary such as
// "kan[2 -> 3 -> 1] edges=9 sinks=1 params=45". edges counts evaluated edges.
func (n *Network) Describe() string {
	sizes := []string{fmt.Sprint(n.NumInputs())}
	for _, l := range n.Layers {
		sizes = append(sizes, fmt.Sprint(l.Len()))
	}
	sinks := n.NumSinkEdges()
	return fmt.Sprintf("kan[%s] edges=%d sinks=%d params=%d",
		strings.Join(sizes, " -> "), n.Arena.Len()-sinks, sinks, n.NumParameters())
}
