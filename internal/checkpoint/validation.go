package checkpoint

import (
	"fmt"
	"sort"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize = 100 * 1024 * 1024 // 100MB
	MaxEdgeCount  = 1_000_000
)

// ValidateEdgeOffsets checks that every edge's spline lies inside the data
// section, matches its declared shape, and does not overlap another edge.
func ValidateEdgeOffsets(edges []EdgeMeta, dataSize int64) error {
	if len(edges) > MaxEdgeCount {
		return &ValidationError{
			Type:    "too_many_edges",
			Edge:    -1,
			Details: fmt.Sprintf("got %d, max %d", len(edges), MaxEdgeCount),
		}
	}

	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return edges[order[a]].Offset < edges[order[b]].Offset
	})

	for k, i := range order {
		e := edges[i]
		if e.Offset < 0 || e.Size < 0 || e.Degree < 0 || e.NumControlPoints < 1 {
			return &ValidationError{
				Type: "negative_offset",
				Edge: i,
				Details: fmt.Sprintf("offset=%d size=%d degree=%d control_points=%d",
					e.Offset, e.Size, e.Degree, e.NumControlPoints),
			}
		}
		if e.Offset > dataSize || e.Size > dataSize-e.Offset {
			return &ValidationError{
				Type:    "out_of_bounds",
				Edge:    i,
				Details: fmt.Sprintf("offset %d size %d outside data_size %d", e.Offset, e.Size, dataSize),
			}
		}
		// Bounded by the data section so splineSize cannot overflow.
		if int64(e.NumControlPoints) > dataSize/float64Size || int64(e.Degree) > dataSize/float64Size {
			return &ValidationError{
				Type:    "size_mismatch",
				Edge:    i,
				Details: fmt.Sprintf("%d control points of degree %d exceed data_size %d", e.NumControlPoints, e.Degree, dataSize),
			}
		}
		if want := splineSize(e.NumControlPoints, e.Degree); e.Size != want {
			return &ValidationError{
				Type:    "size_mismatch",
				Edge:    i,
				Details: fmt.Sprintf("size %d, want %d for %d control points of degree %d", e.Size, want, e.NumControlPoints, e.Degree),
			}
		}
		if k < len(order)-1 {
			next := edges[order[k+1]]
			if e.Offset+e.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Edge:    i,
					Details: fmt.Sprintf("overlaps edge %d at offset %d", order[k+1], next.Offset),
				}
			}
		}
	}
	return nil
}

// ValidateTopology checks that nodes only refer to stored edges.
func ValidateTopology(h *Header) error {
	if len(h.Layers) == 0 {
		return &ValidationError{Type: "empty_topology", Edge: -1, Details: "no layers"}
	}
	check := func(l, j int, ids []int) error {
		for _, id := range ids {
			if id < 0 || id >= len(h.Edges) {
				return &ValidationError{
					Type:    "unknown_edge",
					Edge:    id,
					Details: fmt.Sprintf("referenced by layer %d node %d, have %d edges", l, j, len(h.Edges)),
				}
			}
		}
		return nil
	}
	for l, nodes := range h.Layers {
		if len(nodes) == 0 {
			return &ValidationError{Type: "empty_layer", Edge: -1, Details: fmt.Sprintf("layer %d has no nodes", l)}
		}
		for j, n := range nodes {
			if err := check(l, j, n.Incoming); err != nil {
				return err
			}
			if err := check(l, j, n.Outgoing); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateHeader performs all header checks.
func ValidateHeader(h *Header, dataSize int64) error {
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: header declares %d", ErrUnsupportedVersion, h.FormatVersion)
	}
	if err := ValidateEdgeOffsets(h.Edges, dataSize); err != nil {
		return err
	}
	return ValidateTopology(h)
}
