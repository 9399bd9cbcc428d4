package kan

import (
	"fmt"

	"github.com/born-ml/kan/internal/linalg"
)

// Node sums the activations of its incoming edges.
//
// Incoming edge i consumes inputs[i]. Outgoing edges only shape the node's
// output row in Layer.Forward; the node never evaluates them.
type Node struct {
	arena    *Arena
	Incoming []EdgeID
	Outgoing []EdgeID
	Layer    int
}

// NewNode creates a node whose edges live in arena.
func NewNode(arena *Arena, incoming, outgoing []EdgeID, layer int) *Node {
	return &Node{
		arena:    arena,
		Incoming: append([]EdgeID(nil), incoming...),
		Outgoing: append([]EdgeID(nil), outgoing...),
		Layer:    layer,
	}
}

// AddIncoming appends an incoming edge.
func (n *Node) AddIncoming(id EdgeID) {
	n.Incoming = append(n.Incoming, id)
}

// AddOutgoing appends an outgoing edge.
func (n *Node) AddOutgoing(id EdgeID) {
	n.Outgoing = append(n.Outgoing, id)
}

// FanIn returns the number of incoming edges.
func (n *Node) FanIn() int {
	return len(n.Incoming)
}

// FanOut returns the number of outgoing edges.
func (n *Node) FanOut() int {
	return len(n.Outgoing)
}

// IncomingEdge returns the i-th incoming edge.
func (n *Node) IncomingEdge(i int) (*Edge, error) {
	if i < 0 || i >= len(n.Incoming) {
		return nil, fmt.Errorf("%w: incoming %d of %d", ErrIndexOutOfRange, i, len(n.Incoming))
	}
	return n.arena.Edge(n.Incoming[i])
}

func (n *Node) checkInputs(op string, inputs linalg.Vector) error {
	if len(inputs) != len(n.Incoming) {
		return &ShapeError{Op: op, What: "inputs", Want: len(n.Incoming), Got: len(inputs)}
	}
	return nil
}

// Forward returns the sum of incoming[i].Forward(inputs[i]).
//
// len(inputs) must equal the number of incoming edges.
func (n *Node) Forward(inputs linalg.Vector) (float64, error) {
	if err := n.checkInputs("node.forward", inputs); err != nil {
		return 0, err
	}
	var sum float64
	for i, id := range n.Incoming {
		e, err := n.arena.Edge(id)
		if err != nil {
			return 0, err
		}
		y, err := e.Forward(inputs[i])
		if err != nil {
			return 0, fmt.Errorf("node.forward: edge %d: %w", id, err)
		}
		sum += y
	}
	return sum, nil
}

// Backward passes upstream unchanged to every incoming edge. The node output
// is an unweighted sum, so d(node)/d(edge_i) = 1.
func (n *Node) Backward(inputs linalg.Vector, upstream float64) error {
	if err := n.checkInputs("node.backward", inputs); err != nil {
		return err
	}
	for i, id := range n.Incoming {
		e, err := n.arena.Edge(id)
		if err != nil {
			return err
		}
		if err := e.Backward(inputs[i], upstream); err != nil {
			return fmt.Errorf("node.backward: edge %d: %w", id, err)
		}
	}
	return nil
}

// UpdateWeights updates every incoming edge. The first failure aborts.
func (n *Node) UpdateWeights(lr float64) error {
	if err := checkLearningRate(lr); err != nil {
		return err
	}
	for _, id := range n.Incoming {
		e, err := n.arena.Edge(id)
		if err != nil {
			return err
		}
		if err := e.UpdateWeights(lr); err != nil {
			return fmt.Errorf("node.update: edge %d: %w", id, err)
		}
	}
	return nil
}
