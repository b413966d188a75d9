package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Format selects the encoding of an exported topology.
type Format string

// Supported topology encodings.
const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned for encodings other than json and cbor.
var ErrUnknownFormat = errors.New("unknown topology format")

// LayerSpec is the serializable description of one node.
type LayerSpec struct {
	Name        string   `json:"name"`
	Op          string   `json:"op"`
	Inputs      []string `json:"inputs,omitempty"`
	Shape       []int    `json:"shape"`
	Filters     int      `json:"filters,omitempty"`
	Kernel      int      `json:"kernel,omitempty"`
	Stride      int      `json:"stride,omitempty"`
	Padding     string   `json:"padding,omitempty"`
	Activation  string   `json:"activation,omitempty"`
	Initializer string   `json:"initializer,omitempty"`
	UseBias     bool     `json:"use_bias,omitempty"`
	Momentum    float64  `json:"momentum,omitempty"`
	Epsilon     float64  `json:"epsilon,omitempty"`
	Size        int      `json:"size,omitempty"`
	Params      int      `json:"params,omitempty"`
}

// Topology is the serializable description of a model: everything needed to
// compare two builds or to key weights, but no parameter values.
type Topology struct {
	Name    string      `json:"name"`
	Input   string      `json:"input"`
	Outputs []string    `json:"outputs"`
	Layers  []LayerSpec `json:"layers"`
}

// Topology describes the model's layers in creation order.
func (m *Model) Topology() Topology {
	t := Topology{
		Name:   m.name,
		Input:  m.input.name,
		Layers: make([]LayerSpec, 0, len(m.nodes)),
	}
	for _, out := range m.outputs {
		t.Outputs = append(t.Outputs, out.name)
	}
	for _, n := range m.nodes {
		spec := LayerSpec{
			Name:   n.name,
			Op:     n.op.String(),
			Shape:  n.shape.Dims(),
			Params: n.ParamCount(),
		}
		for _, in := range n.inputs {
			spec.Inputs = append(spec.Inputs, in.name)
		}
		switch n.op {
		case OpConv2D:
			c := n.attrs.Conv
			spec.Filters = c.Filters
			spec.Kernel = c.Kernel
			spec.Stride = c.Stride
			spec.Padding = c.Padding.String()
			spec.Activation = c.Activation.String()
			spec.Initializer = c.Initializer.String()
			spec.UseBias = !c.NoBias
		case OpBatchNorm:
			spec.Momentum = n.attrs.Norm.Momentum
			spec.Epsilon = n.attrs.Norm.Epsilon
		case OpMaxPool2D, OpUpSample2D:
			spec.Size = n.attrs.Size
		}
		t.Layers = append(t.Layers, spec)
	}
	return t
}

// Encode writes the topology in the given format. CBOR output uses the core
// deterministic encoding, so equal topologies always produce equal bytes.
func (t Topology) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(t), "unable to encode topology as json")
	case FormatCBOR:
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return errors.Wrap(err, "unable to create cbor encoder")
		}
		return errors.Wrap(em.NewEncoder(w).Encode(t), "unable to encode topology as cbor")
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// DecodeTopology reads a topology written by Encode.
func DecodeTopology(r io.Reader, format Format) (Topology, error) {
	var t Topology
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return Topology{}, errors.Wrap(err, "unable to decode json topology")
		}
	case FormatCBOR:
		if err := cbor.NewDecoder(r).Decode(&t); err != nil {
			return Topology{}, errors.Wrap(err, "unable to decode cbor topology")
		}
	default:
		return Topology{}, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return t, nil
}

// Fingerprint returns the hex SHA-256 of the deterministic CBOR encoding of
// the model topology.
func (m *Model) Fingerprint() (string, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return "", errors.Wrap(err, "unable to create cbor encoder")
	}
	data, err := em.Marshal(m.Topology())
	if err != nil {
		return "", errors.Wrap(err, "unable to encode topology")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
