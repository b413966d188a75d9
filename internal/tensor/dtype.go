// Package tensor provides the shape types and the dense float32 storage used by the hourglass runtime.
package tensor

import "fmt"

// DataType identifies the storage precision of a tensor when it is persisted.
//
// All in-memory computation happens in float32; the half-precision types only
// exist on disk.
type DataType int

// Supported storage types.
const (
	Float32 DataType = iota
	Float16
	BFloat16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16, BFloat16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	default:
		return "unknown"
	}
}

// SafeTensorsName returns the dtype tag used in SafeTensors headers.
func (dt DataType) SafeTensorsName() string {
	switch dt {
	case Float32:
		return "F32"
	case Float16:
		return "F16"
	case BFloat16:
		return "BF16"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType accepts both the short CLI spelling (f32, f16, bf16) and
// the SafeTensors tag (F32, F16, BF16).
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "f32", "F32", "float32":
		return Float32, nil
	case "f16", "F16", "float16":
		return Float16, nil
	case "bf16", "BF16", "bfloat16":
		return BFloat16, nil
	default:
		return 0, fmt.Errorf("unsupported data type %q", s)
	}
}
