package serialization

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrChecksumMismatch    = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap       = errors.New("tensor offsets overlap")
	ErrOutOfBounds         = errors.New("tensor extends beyond data section")
	ErrNegativeOffset      = errors.New("negative offset or size")
	ErrTooManyTensors      = errors.New("too many tensors in file")
	ErrTensorNameTooLong   = errors.New("tensor name too long")
	ErrInvalidTensorName   = errors.New("invalid tensor name")
	ErrHeaderTooLarge      = errors.New("header exceeds maximum size")
	ErrUnsupportedDType    = errors.New("unsupported dtype")
	ErrSizeMismatch        = errors.New("tensor byte size does not match its shape")
	ErrFingerprintMismatch = errors.New("weights were saved for a different model")
)

// Validation error types.
const (
	TypeTooManyTensors = "too_many_tensors"
	TypeNegativeOffset = "negative_offset"
	TypeOutOfBounds    = "out_of_bounds"
	TypeOffsetOverlap  = "offset_overlap"
	TypeNameTooLong    = "name_too_long"
	TypeInvalidName    = "invalid_name"
	TypeSizeMismatch   = "size_mismatch"
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap maps the error type to its sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	switch e.Type {
	case TypeTooManyTensors:
		return ErrTooManyTensors
	case TypeNegativeOffset:
		return ErrNegativeOffset
	case TypeOutOfBounds:
		return ErrOutOfBounds
	case TypeOffsetOverlap:
		return ErrOffsetOverlap
	case TypeNameTooLong:
		return ErrTensorNameTooLong
	case TypeInvalidName:
		return ErrInvalidTensorName
	case TypeSizeMismatch:
		return ErrSizeMismatch
	default:
		return nil
	}
}
