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

// File is a decoded SafeTensors file. Every tensor is converted to float32.
type File struct {
	Header  Header
	Tensors map[string]*tensor.RawTensor
}

// Metadata returns the parsed well-known metadata entries.
func (f *File) Metadata() Metadata {
	return ParseMetadata(f.Header.Metadata)
}

// Read decodes a SafeTensors stream. The header is validated before any
// tensor is decoded and the data checksum is verified when present.
func Read(r io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "failed to read header size")
	}
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	header, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if err := ValidateHeader(header, int64(len(data))); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if want, ok := header.Metadata[MetaChecksum]; ok {
		if err := VerifyChecksum(data, want); err != nil {
			return nil, err
		}
	}

	f := &File{
		Header:  *header,
		Tensors: make(map[string]*tensor.RawTensor, len(header.Tensors)),
	}
	for _, meta := range header.Tensors {
		values := decode(data[meta.Offset:meta.Offset+meta.Size], meta.DType)
		t, err := tensor.FromSlice(values, meta.Shape)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %s", meta.Name)
		}
		f.Tensors[meta.Name] = t
	}
	return f, nil
}

// ReadFile decodes the SafeTensors file at path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	f, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return f, nil
}

func parseHeader(raw []byte) (*Header, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to parse header")
	}

	h := &Header{Metadata: map[string]string{}}
	for name, msg := range entries {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &h.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to parse metadata")
			}
			continue
		}

		var entry headerEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			return nil, errors.Wrapf(err, "failed to parse tensor %s", name)
		}
		dtype, err := parseDType(entry.DType)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %s", name)
		}

		shape := make(tensor.Shape, len(entry.Shape))
		for i, dim := range entry.Shape {
			if dim <= 0 || dim > math.MaxInt32 {
				return nil, errors.Errorf("tensor %s: invalid dimension %d", name, dim)
			}
			shape[i] = int(dim)
		}
		h.Tensors = append(h.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  shape,
			Offset: entry.DataOffsets[0],
			Size:   entry.DataOffsets[1] - entry.DataOffsets[0],
		})
	}

	sort.Slice(h.Tensors, func(i, j int) bool {
		return h.Tensors[i].Offset < h.Tensors[j].Offset
	})
	return h, nil
}

func parseDType(s string) (tensor.DataType, error) {
	switch s {
	case "F32":
		return tensor.Float32, nil
	case "F16":
		return tensor.Float16, nil
	case "BF16":
		return tensor.BFloat16, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedDType, "%q", s)
	}
}

func decode(b []byte, dtype tensor.DataType) []float32 {
	switch dtype {
	case tensor.Float16:
		out := make([]float32, len(b)/2)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(b[2*i:])).Float32()
		}
		return out
	case tensor.BFloat16:
		return bfloat16.DecodeFloat32(b)
	default:
		out := make([]float32, len(b)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return out
	}
}
