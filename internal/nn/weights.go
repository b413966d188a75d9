package nn

import (
	"context"
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/internal/tensor"
)

// Weight store errors.
var (
	ErrMissingParameter    = errors.New("missing parameter")
	ErrUnexpectedParameter = errors.New("unexpected parameter")
	ErrShapeMismatch       = errors.New("parameter shape mismatch")
)

// Weights holds every parameter of a model, keyed by parameter name in layer
// creation order.
type Weights struct {
	params *linkedhashmap.Map // name -> *Parameter
}

// NewWeights allocates zero-filled parameters for every layer of m. Use Load
// to fill them from a state dict.
func NewWeights(m *graph.Model) (*Weights, error) {
	w := &Weights{params: linkedhashmap.New()}
	for _, n := range m.Layers() {
		for _, spec := range n.Params() {
			t, err := tensor.NewRaw(spec.Shape)
			if err != nil {
				return nil, errors.Wrapf(err, "layer %s", n.Name())
			}
			name := n.ParamName(spec.Suffix)
			w.params.Put(name, NewParameter(name, t, spec.Trainable))
		}
	}
	return w, nil
}

// InitWeights draws fresh parameters for every layer of m. Layers are
// initialized concurrently with at most cfg.NumWorkers goroutines; each layer
// seeds its own random source from seed and its name, so the result depends
// only on seed.
func InitWeights(ctx context.Context, m *graph.Model, seed int64, cfg parallel.Config) (*Weights, error) {
	layers := m.Layers()
	results := make([][]*Parameter, len(layers))

	cfg.MinChunkSize = 1
	err := parallel.ForErr(ctx, len(layers), func(_ context.Context, i int) error {
		n := layers[i]
		specs := n.Params()
		if len(specs) == 0 {
			return nil
		}

		rng := layerRNG(seed, n.Name())
		params := make([]*Parameter, 0, len(specs))
		for _, spec := range specs {
			t, err := Initialize(spec, rng)
			if err != nil {
				return errors.Wrapf(err, "layer %s", n.Name())
			}
			params = append(params, NewParameter(n.ParamName(spec.Suffix), t, spec.Trainable))
		}
		results[i] = params
		return nil
	}, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize weights")
	}

	w := &Weights{params: linkedhashmap.New()}
	for _, params := range results {
		for _, p := range params {
			w.params.Put(p.Name(), p)
		}
	}
	return w, nil
}

// Get returns the named parameter.
func (w *Weights) Get(name string) (*Parameter, bool) {
	v, ok := w.params.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Parameter), true
}

// Len returns the number of parameter tensors.
func (w *Weights) Len() int {
	return w.params.Size()
}

// Count returns the total number of scalar values.
func (w *Weights) Count() int {
	total := 0
	it := w.params.Iterator()
	for it.Next() {
		total += it.Value().(*Parameter).Tensor().NumElements()
	}
	return total
}

// Names returns the parameter names in layer creation order.
func (w *Weights) Names() []string {
	names := make([]string, 0, w.params.Size())
	for _, k := range w.params.Keys() {
		names = append(names, k.(string))
	}
	return names
}

// StateDict returns the parameter tensors keyed by name. The tensors are
// shared, not copied.
func (w *Weights) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, w.params.Size())
	it := w.params.Iterator()
	for it.Next() {
		p := it.Value().(*Parameter)
		state[p.Name()] = p.Tensor()
	}
	return state
}

// Load copies values from state into the parameters. The state must contain
// exactly the parameters of the model with matching shapes; nothing is
// modified when it does not.
func (w *Weights) Load(state map[string]*tensor.RawTensor) error {
	it := w.params.Iterator()
	for it.Next() {
		p := it.Value().(*Parameter)
		src, ok := state[p.Name()]
		if !ok {
			return errors.Wrapf(ErrMissingParameter, "%s", p.Name())
		}
		if !src.Shape().Equal(p.Tensor().Shape()) {
			return errors.Wrapf(ErrShapeMismatch, "%s: got %v, want %v",
				p.Name(), src.Shape(), p.Tensor().Shape())
		}
	}

	var unexpected []string
	for name := range state {
		if _, ok := w.params.Get(name); !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return errors.Wrapf(ErrUnexpectedParameter, "%v", unexpected)
	}

	it = w.params.Iterator()
	for it.Next() {
		p := it.Value().(*Parameter)
		copy(p.Tensor().AsFloat32(), state[p.Name()].AsFloat32())
	}
	return nil
}
