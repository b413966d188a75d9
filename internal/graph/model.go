package graph

import (
	"cmp"
	"slices"

	dag "github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Model is an assembled graph with one input and an ordered list of outputs.
type Model struct {
	name    string
	input   *Node
	outputs []*Node
	nodes   []*Node
	byName  map[string]*Node
	dag     dag.Graph[int, *Node]
}

func newModel(st *state, input *Node, outputs []*Node) *Model {
	nodes := append([]*Node(nil), st.nodes...)
	byName := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		byName[n.name] = n
	}
	return &Model{
		name:    st.name,
		input:   input,
		outputs: append([]*Node(nil), outputs...),
		nodes:   nodes,
		byName:  byName,
		dag:     st.dag,
	}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Input returns the input node.
func (m *Model) Input() *Node {
	return m.input
}

// Outputs returns the output nodes in the order they were given to Finish.
func (m *Model) Outputs() []*Node {
	return append([]*Node(nil), m.outputs...)
}

// Layers returns every node in creation order.
func (m *Model) Layers() []*Node {
	return append([]*Node(nil), m.nodes...)
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	return len(m.nodes)
}

// Find looks a node up by its full name.
func (m *Model) Find(name string) (*Node, bool) {
	n, ok := m.byName[name]
	return n, ok
}

// CountOps returns how many nodes of kind op exist, optionally restricted to
// names starting with prefix.
func (m *Model) CountOps(op Op, prefix string) int {
	count := 0
	for _, n := range m.nodes {
		if n.op == op && hasScope(n.name, prefix) {
			count++
		}
	}
	return count
}

func hasScope(name, prefix string) bool {
	if prefix == "" {
		return true
	}
	return len(name) > len(prefix) && name[:len(prefix)] == prefix && name[len(prefix)] == '/'
}

// ParamCount returns the total number of scalar parameters.
func (m *Model) ParamCount() int {
	total := 0
	for _, n := range m.nodes {
		total += n.ParamCount()
	}
	return total
}

// TrainableParamCount returns the number of trainable scalar parameters.
func (m *Model) TrainableParamCount() int {
	total := 0
	for _, n := range m.nodes {
		for _, p := range n.Params() {
			if p.Trainable {
				total += p.Shape.NumElements()
			}
		}
	}
	return total
}

// LayerShape is one entry of a model's shape signature.
type LayerShape struct {
	Op    Op
	Shape tensor.FeatureShape
}

// LayerShapes returns the op and output shape of every node in creation order.
// Two builds of the same configuration return equal signatures.
func (m *Model) LayerShapes() []LayerShape {
	out := make([]LayerShape, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = LayerShape{Op: n.op, Shape: n.shape}
	}
	return out
}

// Order returns the nodes in a stable topological order computed from the
// graph's edges. Ties are broken by creation index.
func (m *Model) Order() ([]*Node, error) {
	ids, err := dag.StableTopologicalSort(m.dag, func(a, b int) bool {
		return a < b
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort layers")
	}
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = m.nodes[id]
	}
	return out, nil
}

// Consumers returns the nodes that read the output of the named node.
func (m *Model) Consumers(name string) ([]*Node, error) {
	n, ok := m.byName[name]
	if !ok {
		return nil, errors.Errorf("unknown layer %q", name)
	}
	adjacency, err := m.dag.AdjacencyMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get adjacency map")
	}
	var out []*Node
	for id := range adjacency[n.id] {
		out = append(out, m.nodes[id])
	}
	slices.SortFunc(out, func(a, b *Node) int {
		return cmp.Compare(a.id, b.id)
	})
	return out, nil
}
