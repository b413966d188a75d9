package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hourglass/internal/tensor"
)

func testState(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(5))

	kernel, err := tensor.Randn(tensor.Shape{3, 3, 2, 4}, rng)
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{4})
	require.NoError(t, err)
	gamma, err := tensor.Full(tensor.Shape{4}, 1)
	require.NoError(t, err)

	return map[string]*tensor.RawTensor{
		"stem/conv2d/kernel":    kernel,
		"stem/conv2d/bias":      bias,
		"stem/batch_norm/gamma": gamma,
	}
}

// writeRaw builds a file from a hand-written header.
func writeRaw(t *testing.T, header map[string]any, data []byte) *bytes.Reader {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))))
	buf.Write(headerJSON)
	buf.Write(data)
	return bytes.NewReader(buf.Bytes())
}

func TestSafeTensors_RoundTrip(t *testing.T) {
	state := testState(t)
	meta := NewMetadata("StackedHourglass", "abc123", `{"num_stacks":2}`)

	tests := []struct {
		dtype tensor.DataType
		tol   float64
	}{
		{tensor.Float32, 0},
		{tensor.Float16, 2e-3 * 4},
		{tensor.BFloat16, 1.6e-2 * 4},
	}

	for _, tt := range tests {
		t.Run(tt.dtype.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "weights.safetensors")
			require.NoError(t, WriteFile(path, state, tt.dtype, meta.Map()))

			f, err := ReadFile(path)
			require.NoError(t, err)
			require.Len(t, f.Tensors, len(state))

			for name, want := range state {
				got, ok := f.Tensors[name]
				require.True(t, ok, name)
				assert.True(t, want.AllClose(got, tt.tol), "%s differs beyond %g", name, tt.tol)
			}
			for _, tm := range f.Header.Tensors {
				assert.Equal(t, tt.dtype, tm.DType)
			}

			got := f.Metadata()
			assert.Equal(t, meta, got)
			assert.Equal(t, FormatName, f.Header.Metadata[MetaFormat])
			assert.Len(t, f.Header.Metadata[MetaChecksum], 64)
		})
	}
}

func TestSafeTensors_AlphabeticalOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testState(t), tensor.Float32, nil))

	f, err := Read(&buf)
	require.NoError(t, err)

	names := make([]string, len(f.Header.Tensors))
	for i, tm := range f.Header.Tensors {
		names[i] = tm.Name
	}
	assert.Equal(t, []string{"stem/batch_norm/gamma", "stem/conv2d/bias", "stem/conv2d/kernel"}, names)
	assert.Equal(t, int64(0), f.Header.Tensors[0].Offset)
}

func TestSafeTensors_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testState(t), tensor.Float32, nil))
	raw := buf.Bytes()

	// Flip one byte of the data section.
	corrupt := append([]byte(nil), raw...)
	corrupt[len(corrupt)-1] ^= 0xff
	_, err := Read(bytes.NewReader(corrupt))
	assert.True(t, errors.Is(err, ErrChecksumMismatch), "got %v", err)

	// Truncate the data section.
	_, err = Read(bytes.NewReader(raw[:len(raw)-4]))
	assert.True(t, errors.Is(err, ErrOutOfBounds), "got %v", err)
}

func TestSafeTensors_InvalidHeaders(t *testing.T) {
	data := make([]byte, 16)

	tests := []struct {
		name   string
		header map[string]any
		want   error
	}{
		{
			name: "unsupported dtype",
			header: map[string]any{
				"a": headerEntry{DType: "I64", Shape: []int64{2}, DataOffsets: [2]int64{0, 16}},
			},
			want: ErrUnsupportedDType,
		},
		{
			name: "overlap",
			header: map[string]any{
				"a": headerEntry{DType: "F32", Shape: []int64{2}, DataOffsets: [2]int64{0, 8}},
				"b": headerEntry{DType: "F32", Shape: []int64{2}, DataOffsets: [2]int64{4, 12}},
			},
			want: ErrOffsetOverlap,
		},
		{
			name: "size mismatch",
			header: map[string]any{
				"a": headerEntry{DType: "F16", Shape: []int64{2}, DataOffsets: [2]int64{0, 8}},
			},
			want: ErrSizeMismatch,
		},
		{
			name: "bad name",
			header: map[string]any{
				"../a": headerEntry{DType: "F32", Shape: []int64{2}, DataOffsets: [2]int64{0, 8}},
			},
			want: ErrInvalidTensorName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(writeRaw(t, tt.header, data))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSafeTensors_HeaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))
	_, err := Read(&buf)
	assert.True(t, errors.Is(err, ErrHeaderTooLarge))
}

func TestSafeTensors_WriteRejectsBadNames(t *testing.T) {
	x, _ := tensor.Full(tensor.Shape{1}, 1)
	err := Write(&bytes.Buffer{}, map[string]*tensor.RawTensor{"a//b": x}, tensor.Float32, nil)
	assert.True(t, errors.Is(err, ErrInvalidTensorName))
}

func TestMetadata(t *testing.T) {
	a := NewMetadata("m", "fp", "")
	b := NewMetadata("m", "fp", "")
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Len(t, a.RunID, 36)

	m := a.Map()
	assert.NotContains(t, m, MetaConfig)
	assert.Equal(t, "fp", m[MetaFingerprint])

	assert.NoError(t, a.CheckFingerprint("fp"))
	assert.NoError(t, Metadata{}.CheckFingerprint("anything"))
	assert.True(t, errors.Is(a.CheckFingerprint("other"), ErrFingerprintMismatch))
}
