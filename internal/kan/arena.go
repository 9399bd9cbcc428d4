package kan

import "fmt"

// EdgeID is a stable index of an edge inside an Arena.
type EdgeID int

// Arena owns every edge of a network.
//
// An edge is referenced by two nodes: its origin lists it as outgoing and its
// destination lists it as incoming. Both hold the same EdgeID, so a gradient
// or weight update made through one node is seen by the other.
type Arena struct {
	edges []*Edge
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add stores e and returns its ID. IDs are never reused.
func (a *Arena) Add(e *Edge) EdgeID {
	a.edges = append(a.edges, e)
	return EdgeID(len(a.edges) - 1)
}

// Edge returns the edge with the given ID.
func (a *Arena) Edge(id EdgeID) (*Edge, error) {
	if id < 0 || int(id) >= len(a.edges) {
		return nil, fmt.Errorf("%w: id %d, arena holds %d", ErrUnknownEdge, id, len(a.edges))
	}
	return a.edges[id], nil
}

// Len returns the number of edges.
func (a *Arena) Len() int {
	return len(a.edges)
}

// All returns the edges in ID order. The slice must not be modified.
func (a *Arena) All() []*Edge {
	return a.edges
}
