package checkpoint

import (
	"time"
)

// Format constants.
const (
	MagicBytes       = "BKAN"
	FormatVersion    = 1
	HeaderAlignment  = 64 // Data section alignment
	FixedHeaderSize  = 64
	ChecksumSize     = 32
	ChecksumOffset   = 0x20
	headerSizeOffset = 0x10
	dataSizeOffset   = 0x18
	float64Size      = 8
)

// Flags for the .kan format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHasTraining uint32 = 1 << 1 // bit 1: training state included
)

// Header is the JSON header of a .kan file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	RunID         string            `json:"run_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Layers        [][]NodeMeta      `json:"layers"` // Nodes of each layer in evaluation order
	Edges         []EdgeMeta        `json:"edges"`  // Indexed by EdgeID
	Metadata      map[string]string `json:"metadata,omitempty"`
	Training      *TrainingMeta     `json:"training,omitempty"`
}

// NodeMeta lists the edges a node refers to.
type NodeMeta struct {
	Incoming []int `json:"incoming"`
	Outgoing []int `json:"outgoing"`
}

// EdgeMeta describes one edge and where its spline lives in the data
// section: NumControlPoints control points followed by the knot vector.
type EdgeMeta struct {
	Start            int   `json:"start"`
	End              int   `json:"end"`
	Layer            int   `json:"layer"`
	Degree           int   `json:"degree"`
	NumControlPoints int   `json:"num_control_points"`
	Offset           int64 `json:"offset"` // Bytes from the start of the data section
	Size             int64 `json:"size"`   // Size in bytes
}

// TrainingMeta records the state of the run that produced the checkpoint.
type TrainingMeta struct {
	Epochs int     `json:"epochs"`
	Loss   float64 `json:"loss"`
	LR     float64 `json:"lr"`
}

// Meta is the caller-supplied part of a header.
type Meta struct {
	RunID    string // Generated when empty
	Metadata map[string]string
	Training *TrainingMeta
}

// splineSize returns the byte size of an edge's control points and knots.
func splineSize(numControlPoints, degree int) int64 {
	return int64(2*numControlPoints+degree+1) * float64Size
}

func align(n int64) int64 {
	return (n + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment
}
