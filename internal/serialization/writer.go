package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"

	"github.com/d4l3k/go-bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Write encodes tensors in SafeTensors format, storing every tensor as dtype.
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]
//
// Tensors are written in alphabetical order by name. The SHA-256 of the data
// section is added to the metadata under MetaChecksum.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, dtype tensor.DataType, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var data bytes.Buffer
	header := make(map[string]any, len(names)+1)
	for _, name := range names {
		raw := tensors[name]
		encoded, err := encode(raw.AsFloat32(), dtype)
		if err != nil {
			return errors.Wrapf(err, "tensor %s", name)
		}

		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		start := int64(data.Len())
		header[name] = headerEntry{
			DType:       dtype.SafeTensorsName(),
			Shape:       shape,
			DataOffsets: [2]int64{start, start + int64(len(encoded))},
		}
		data.Write(encoded)
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaChecksum] = Checksum(data.Bytes())
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "failed to write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if _, err := data.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write tensor data")
	}
	return nil
}

// WriteFile writes tensors to a SafeTensors file at path.
func WriteFile(path string, tensors map[string]*tensor.RawTensor, dtype tensor.DataType, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close file")
		}
	}()

	return Write(file, tensors, dtype, metadata)
}

func encode(data []float32, dtype tensor.DataType) ([]byte, error) {
	switch dtype {
	case tensor.Float32:
		out := make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out, nil
	case tensor.Float16:
		out := make([]byte, 2*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
		}
		return out, nil
	case tensor.BFloat16:
		return bfloat16.EncodeFloat32(data), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDType, "%s", dtype)
	}
}
