package checkpoint

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrTruncated          = errors.New("file is truncated")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "unknown_edge")
	Edge    int    // Edge index involved, -1 when none
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Edge >= 0 {
		return fmt.Sprintf("%s: edge %d: %s", e.Type, e.Edge, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
