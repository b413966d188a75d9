package serialization

import (
	"github.com/born-ml/hourglass/internal/tensor"
)

// metadataKey is the reserved header entry holding string metadata.
const metadataKey = "__metadata__"

// Header is the decoded header of a SafeTensors file.
type Header struct {
	Tensors  []TensorMeta      // In data offset order.
	Metadata map[string]string // Free-form string metadata.
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string
	DType  tensor.DataType
	Shape  tensor.Shape
	Offset int64 // Bytes from start of tensor data
	Size   int64 // Size in bytes
}

// ExpectedSize returns the byte size implied by the tensor's shape and dtype.
func (t TensorMeta) ExpectedSize() int64 {
	return int64(t.Shape.NumElements()) * int64(t.DType.Size())
}

// headerEntry is the JSON form of one tensor in the header.
type headerEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}
