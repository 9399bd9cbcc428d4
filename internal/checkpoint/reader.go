package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/kan/internal/kan"
	"github.com/born-ml/kan/internal/linalg"
)

// ReaderOptions configures decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// Decode parses a .kan file and rebuilds the network it holds.
//
//nolint:gocyclo,cyclop // Binary format parsing is sequential by nature
func Decode(buf []byte, opts ReaderOptions) (*kan.Network, *Header, error) {
	if len(buf) < FixedHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(buf), FixedHeaderSize)
	}
	if string(buf[0:4]) != MagicBytes {
		return nil, nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != FormatVersion {
		return nil, nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(buf[headerSizeOffset : headerSizeOffset+8])
	if headerSize > MaxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}
	dataSize := binary.LittleEndian.Uint64(buf[dataSizeOffset : dataSizeOffset+8])
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	dataStart := align(int64(FixedHeaderSize) + int64(headerSize))
	//nolint:gosec // G115: compared against the buffer length before use
	if dataSize > uint64(len(buf)) || dataStart+int64(dataSize) != int64(len(buf)) {
		return nil, nil, fmt.Errorf("%w: header declares %d data bytes at offset %d, file has %d bytes",
			ErrTruncated, dataSize, dataStart, len(buf))
	}
	data := buf[dataStart:]

	if !opts.SkipChecksumValidation {
		var stored [ChecksumSize]byte
		copy(stored[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])
		if sha256.Sum256(data) != stored {
			return nil, nil, ErrChecksumMismatch
		}
	}

	header := &Header{}
	if err := json.Unmarshal(buf[FixedHeaderSize:FixedHeaderSize+headerSize], header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateHeader(header, int64(len(data))); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	net, err := build(header, data)
	if err != nil {
		return nil, nil, err
	}
	return net, header, nil
}

// Read decodes a checkpoint from r with default options.
func Read(r io.Reader) (*kan.Network, *Header, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return Decode(buf, ReaderOptions{})
}

// Load reads a .kan file with checksum validation.
func Load(path string) (*kan.Network, *Header, error) {
	return LoadWithOptions(path, ReaderOptions{})
}

// LoadWithOptions reads a .kan file with custom options.
func LoadWithOptions(path string, opts ReaderOptions) (*kan.Network, *Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Decode(buf, opts)
}

func build(h *Header, data []byte) (*kan.Network, error) {
	arena := kan.NewArena()
	for i, em := range h.Edges {
		values := readFloats(data[em.Offset : em.Offset+em.Size])
		cps := values[:em.NumControlPoints]
		knots := values[em.NumControlPoints:]
		spline, err := kan.NewBSplineWithKnots(cps, knots, em.Degree)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		arena.Add(kan.NewEdge(em.Start, em.End, em.Layer, spline))
	}

	net := kan.NewNetwork(arena)
	for l, metas := range h.Layers {
		nodes := make([]*kan.Node, len(metas))
		for j, nm := range metas {
			nodes[j] = kan.NewNode(arena, edgeIDs(nm.Incoming), edgeIDs(nm.Outgoing), l)
		}
		net.AddLayer(kan.NewLayer(nodes...))
	}
	return net, nil
}

func edgeIDs(indices []int) []kan.EdgeID {
	out := make([]kan.EdgeID, len(indices))
	for i, idx := range indices {
		out[i] = kan.EdgeID(idx)
	}
	return out
}

func readFloats(b []byte) linalg.Vector {
	out := make(linalg.Vector, len(b)/float64Size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*float64Size:]))
	}
	return out
}
