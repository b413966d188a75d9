package graph

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Graph construction errors. Builder methods record them wrapped with the
// op and scope; match them with errors.Is.
var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrInvalidOp     = errors.New("invalid op attributes")
	ErrNilInput      = errors.New("nil input node")
	ErrForeignNode   = errors.New("node belongs to another builder")
	ErrNoOutputs     = errors.New("model needs at least one output")
	ErrNotInput      = errors.New("model input must be an Input node")
	ErrFinished      = errors.New("builder already finished")
)

// ShapeError reports an additive combine whose operands disagree.
type ShapeError struct {
	Op      Op
	Node    string // name the combined node would have taken
	Operand int    // index of the first operand that differs from operand 0
	Want    tensor.FeatureShape
	Got     tensor.FeatureShape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s %q: operand %d has shape %s, want %s",
		e.Op, e.Node, e.Operand, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrShapeMismatch) hold.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
