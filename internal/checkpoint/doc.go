// Package checkpoint provides the native .kan format for saving and loading
// KAN networks.
//
//	Format Structure:
//	  [0x00-0x03: Magic "BKAN"]
//	  [0x04-0x07: Version (uint32 LE)]
//	  [0x08-0x0B: Flags (uint32 LE)]
//	  [0x0C-0x0F: Reserved]
//	  [0x10-0x17: Header Size (uint64 LE)]
//	  [0x18-0x1F: Data Size (uint64 LE)]
//	  [0x20-0x3F: SHA-256 of the data section]
//	  [Header: JSON topology and edge metadata]
//	  [Data: float64 LE control points and knots, 64-byte aligned]
//
// Edges are stored in arena order, so a loaded network keeps the EdgeIDs of
// the saved one. Basis memo tables are not stored.
//
// Example usage:
//
//	hdr, err := checkpoint.Save("model.kan", net, checkpoint.Meta{})
//	net, hdr, err := checkpoint.Load("model.kan")
package checkpoint
