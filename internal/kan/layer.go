package kan

import (
	"fmt"

	"github.com/born-ml/kan/internal/linalg"
	"github.com/born-ml/kan/internal/parallel"
)

// Layer is an ordered collection of nodes evaluated together.
//
// Row i of a layer input feeds node i. Nodes of one layer never share an
// incoming edge, so the per-node work may run concurrently when Parallel is
// enabled.
type Layer struct {
	Nodes    []*Node
	Parallel parallel.Config
}

// NewLayer creates a sequential layer holding nodes.
func NewLayer(nodes ...*Node) *Layer {
	return &Layer{Nodes: nodes}
}

// AddNode appends a node.
func (l *Layer) AddNode(n *Node) {
	l.Nodes = append(l.Nodes, n)
}

// Len returns the number of nodes.
func (l *Layer) Len() int {
	return len(l.Nodes)
}

// FanIns returns the incoming edge count of every node.
func (l *Layer) FanIns() []int {
	out := make([]int, len(l.Nodes))
	for i, n := range l.Nodes {
		out[i] = n.FanIn()
	}
	return out
}

func (l *Layer) checkRows(op string, input linalg.Matrix) error {
	if input.Rows() != len(l.Nodes) {
		return &ShapeError{Op: op, What: "rows", Want: len(l.Nodes), Got: input.Rows()}
	}
	return nil
}

// Forward evaluates every node on its input row.
//
// Output row i repeats node i's value once per outgoing edge, so each edge
// leaving the node receives the node value as its parameter in the next layer.
func (l *Layer) Forward(input linalg.Matrix) (linalg.Matrix, error) {
	if err := l.checkRows("layer.forward", input); err != nil {
		return nil, err
	}
	out := make(linalg.Matrix, len(l.Nodes))
	err := parallel.ForErr(len(l.Nodes), func(i int) error {
		node := l.Nodes[i]
		v, err := node.Forward(input[i])
		if err != nil {
			return fmt.Errorf("layer.forward: node %d: %w", i, err)
		}
		out[i] = linalg.Full(node.FanOut(), v)
		return nil
	}, l.Parallel)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Backward passes upstream[i] to node i together with input row i.
func (l *Layer) Backward(input linalg.Matrix, upstream linalg.Vector) error {
	if err := l.checkRows("layer.backward", input); err != nil {
		return err
	}
	if len(upstream) != len(l.Nodes) {
		return &ShapeError{Op: "layer.backward", What: "upstream gradient", Want: len(l.Nodes), Got: len(upstream)}
	}
	return parallel.ForErr(len(l.Nodes), func(i int) error {
		if err := l.Nodes[i].Backward(input[i], upstream[i]); err != nil {
			return fmt.Errorf("layer.backward: node %d: %w", i, err)
		}
		return nil
	}, l.Parallel)
}

// UpdateWeights updates every node. The first failure aborts.
func (l *Layer) UpdateWeights(lr float64) error {
	if err := checkLearningRate(lr); err != nil {
		return err
	}
	for i, n := range l.Nodes {
		if err := n.UpdateWeights(lr); err != nil {
			return fmt.Errorf("layer.update: node %d: %w", i, err)
		}
	}
	return nil
}

// ResetMemo clears the basis memo of every incoming edge.
func (l *Layer) ResetMemo() {
	parallel.For(len(l.Nodes), func(i int) {
		for _, id := range l.Nodes[i].Incoming {
			if e, err := l.Nodes[i].arena.Edge(id); err == nil {
				e.Spline.ResetMemo()
			}
		}
	}, l.Parallel)
}
