// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kan

import (
	"math/rand"

	"github.com/born-ml/kan/internal/checkpoint"
	"github.com/born-ml/kan/internal/kan"
	"github.com/born-ml/kan/internal/linalg"
)

// Building blocks

// BSpline is a univariate B-spline over a knot vector on [0, 1].
type BSpline = kan.BSpline

// NewBSpline creates a spline over the uniform knot vector for its size and degree.
func NewBSpline(controlPoints linalg.Vector, degree int) *BSpline {
	return kan.NewBSpline(controlPoints, degree)
}

// Edge is a learnable function between two nodes.
type Edge = kan.Edge

// EdgeID addresses an edge inside an Arena.
type EdgeID = kan.EdgeID

// Arena owns the edges of a network.
type Arena = kan.Arena

// Node sums the outputs of its incoming edges.
type Node = kan.Node

// Layer is an ordered list of nodes.
type Layer = kan.Layer

// Network chains layers into a scalar prediction.
type Network = kan.Network

// NewArena creates an empty edge arena.
func NewArena() *Arena {
	return kan.NewArena()
}

// NewEdge creates an edge with a zero gradient.
func NewEdge(start, end, layer int, spline *BSpline) *Edge {
	return kan.NewEdge(start, end, layer, spline)
}

// NewNode creates a node referring to edges of arena.
func NewNode(arena *Arena, incoming, outgoing []EdgeID, layer int) *Node {
	return kan.NewNode(arena, incoming, outgoing, layer)
}

// NewLayer creates a layer from nodes.
func NewLayer(nodes ...*Node) *Layer {
	return kan.NewLayer(nodes...)
}

// NewNetwork creates a network from layers in evaluation order.
func NewNetwork(arena *Arena, layers ...*Layer) *Network {
	return kan.NewNetwork(arena, layers...)
}

// Constructors

// Standard builds a randomly initialized nInputs -> nHidden -> 1 network.
//
// Example:
//
//	net := kan.Standard(2, 8)
func Standard(nInputs, nHidden int) *Network {
	return kan.Standard(nInputs, nHidden)
}

// StandardWithRand is Standard with a caller-supplied random source.
func StandardWithRand(nInputs, nHidden int, rng *rand.Rand) *Network {
	return kan.StandardWithRand(nInputs, nHidden, rng)
}

// Build creates a fully connected network with the given layer widths; the
// last width must be 1.
//
// Example:
//
//	net := kan.Build(2, []int{4, 4, 1}, rand.New(rand.NewSource(1)))
func Build(nInputs int, widths []int, rng *rand.Rand) *Network {
	return kan.Build(nInputs, widths, rng)
}

// SiLU returns x / (1 + e^-x).
func SiLU(x float64) float64 {
	return kan.SiLU(x)
}

// CheckEdgeGradient returns the largest absolute difference between the
// analytic gradient of e at t and a central finite-difference estimate.
func CheckEdgeGradient(e *Edge, t, upstream float64) (float64, error) {
	return e.CheckGradient(t, upstream)
}

// Errors

var (
	// ErrDomain reports a spline input outside [0, 1].
	ErrDomain = kan.ErrDomain
	// ErrShapeMismatch reports inputs whose length does not match the topology.
	ErrShapeMismatch = kan.ErrShapeMismatch
	// ErrInvalidLearningRate reports a learning rate that is not positive.
	ErrInvalidLearningRate = kan.ErrInvalidLearningRate
	// ErrIndexOutOfRange reports a basis index beyond the knot vector.
	ErrIndexOutOfRange = kan.ErrIndexOutOfRange
	// ErrUnknownEdge reports an EdgeID missing from the arena.
	ErrUnknownEdge = kan.ErrUnknownEdge
)

// DomainError carries the offending input of an ErrDomain failure.
type DomainError = kan.DomainError

// ShapeError describes an ErrShapeMismatch failure.
type ShapeError = kan.ShapeError

// Checkpoints

// CheckpointMeta is the caller-supplied part of a checkpoint header.
type CheckpointMeta = checkpoint.Meta

// CheckpointHeader is the JSON header of a .kan file.
type CheckpointHeader = checkpoint.Header

// Save writes net to a .kan file.
func Save(path string, net *Network, meta CheckpointMeta) (*CheckpointHeader, error) {
	return checkpoint.Save(path, net, meta)
}

// Load reads a network from a .kan file, verifying its checksum.
func Load(path string) (*Network, *CheckpointHeader, error) {
	return checkpoint.Load(path)
}
