package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
// Malformed files could otherwise alias or leak data between tensors.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    TypeTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    TypeNegativeOffset,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    TypeOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    TypeOffsetOverlap,
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName checks a parameter name. Names are scoped with "/"
// ("stack_0/heatmap/conv2d/kernel"), so separators are allowed but empty
// segments, ".." segments, backslashes and null bytes are not.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    TypeNameTooLong,
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	invalid := func(details string) error {
		return &ValidationError{Type: TypeInvalidName, Tensor: name, Details: details}
	}

	if strings.ContainsAny(name, "\\\x00") {
		return invalid("contains backslash or null byte")
	}
	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "":
			return invalid("empty path segment")
		case "..", ".":
			return invalid("relative path segment")
		}
	}

	return nil
}

// ValidateHeader checks every tensor name, each tensor's byte size against
// its shape and dtype, and the offsets against the data section size.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    TypeTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if want := t.ExpectedSize(); want != t.Size {
			return &ValidationError{
				Type:    TypeSizeMismatch,
				Tensor:  t.Name,
				Details: fmt.Sprintf("%s %v needs %d bytes, header says %d", t.DType, t.Shape, want, t.Size),
			}
		}
	}

	return ValidateTensorOffsets(h.Tensors, dataSize)
}
