package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/kan/internal/kan"
)

// Encode serializes net into the .kan format and returns the file bytes with
// the header that was written.
func Encode(net *kan.Network, meta Meta) ([]byte, *Header, error) {
	header := &Header{
		FormatVersion: FormatVersion,
		RunID:         meta.RunID,
		CreatedAt:     time.Now().UTC(),
		Layers:        make([][]NodeMeta, len(net.Layers)),
		Edges:         make([]EdgeMeta, 0, net.Arena.Len()),
		Metadata:      meta.Metadata,
		Training:      meta.Training,
	}
	if header.RunID == "" {
		header.RunID = uuid.NewString()
	}

	for l, layer := range net.Layers {
		header.Layers[l] = make([]NodeMeta, len(layer.Nodes))
		for j, node := range layer.Nodes {
			header.Layers[l][j] = NodeMeta{
				Incoming: edgeIndices(node.Incoming),
				Outgoing: edgeIndices(node.Outgoing),
			}
		}
	}

	var data []byte
	for _, e := range net.Arena.All() {
		n := e.Spline.NumControlPoints()
		size := splineSize(n, e.Spline.Degree)
		header.Edges = append(header.Edges, EdgeMeta{
			Start:            e.Start,
			End:              e.End,
			Layer:            e.Layer,
			Degree:           e.Spline.Degree,
			NumControlPoints: n,
			Offset:           int64(len(data)),
			Size:             size,
		})
		data = appendFloats(data, e.Spline.ControlPoints)
		data = appendFloats(data, e.Spline.Knots)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.Training != nil {
		flags |= FlagHasTraining
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[headerSizeOffset:headerSizeOffset+8], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[dataSizeOffset:dataSizeOffset+8], uint64(len(data)))
	checksum := sha256.Sum256(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	dataStart := align(int64(FixedHeaderSize + len(headerJSON)))
	out := make([]byte, 0, dataStart+int64(len(data)))
	out = append(out, fixed...)
	out = append(out, headerJSON...)
	out = append(out, make([]byte, dataStart-int64(len(out)))...)
	out = append(out, data...)

	return out, header, nil
}

// Write encodes net to w.
func Write(w io.Writer, net *kan.Network, meta Meta) (*Header, error) {
	out, header, err := Encode(net, meta)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(out); err != nil {
		return nil, fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return header, nil
}

// Save writes net to a .kan file at path.
func Save(path string, net *kan.Network, meta Meta) (*Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	header, err := Write(file, net, meta)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return header, nil
}

func edgeIndices(ids []kan.EdgeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func appendFloats(buf []byte, values []float64) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}
