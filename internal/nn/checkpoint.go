package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/serialization"
	"github.com/born-ml/hourglass/internal/tensor"
)

// Checkpoint is a set of weights together with the metadata of the file they
// were read from or written to.
//
// A checkpoint is bound to the topology of the model it was saved for: the
// model fingerprint is stored with the weights and checked on load, so
// weights never end up in a network with different layers.
//
// Example:
//
//	meta, err := nn.SaveCheckpoint("weights.safetensors", model, weights, tensor.Float16, configJSON)
//
//	ckpt, err := nn.LoadCheckpoint("weights.safetensors", model)
//	exec := &nn.Executor{Model: model, Weights: ckpt.Weights, Backend: cpu.New()}
type Checkpoint struct {
	Weights  *Weights
	Metadata serialization.Metadata
	DType    tensor.DataType // Precision the values were stored with
}

// SaveCheckpoint writes w, the weights of m, to path as SafeTensors with
// values stored as dtype. config is recorded verbatim in the metadata.
func SaveCheckpoint(path string, m *graph.Model, w *Weights, dtype tensor.DataType, config string) (serialization.Metadata, error) {
	fingerprint, err := m.Fingerprint()
	if err != nil {
		return serialization.Metadata{}, err
	}
	meta := serialization.NewMetadata(m.Name(), fingerprint, config)
	if err := serialization.WriteFile(path, w.StateDict(), dtype, meta.Map()); err != nil {
		return serialization.Metadata{}, errors.Wrap(err, "failed to write checkpoint")
	}
	return meta, nil
}

// LoadCheckpoint reads the file at path into fresh weights for m. It fails
// with serialization.ErrFingerprintMismatch when the file was saved for a
// different topology, and with ErrMissingParameter, ErrUnexpectedParameter
// or ErrShapeMismatch when the tensors do not fit m.
func LoadCheckpoint(path string, m *graph.Model) (*Checkpoint, error) {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fingerprint, err := m.Fingerprint()
	if err != nil {
		return nil, err
	}
	meta := f.Metadata()
	if err := meta.CheckFingerprint(fingerprint); err != nil {
		return nil, err
	}

	w, err := NewWeights(m)
	if err != nil {
		return nil, err
	}
	if err := w.Load(f.Tensors); err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	ckpt := &Checkpoint{Weights: w, Metadata: meta}
	if len(f.Header.Tensors) > 0 {
		ckpt.DType = f.Header.Tensors[0].DType
	}
	return ckpt, nil
}
