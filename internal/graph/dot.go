package graph

import (
	"io"

	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

var opColors = map[Op][3]uint8{
	OpInput:      {224, 224, 224},
	OpConv2D:     {160, 196, 255},
	OpBatchNorm:  {255, 214, 165},
	OpReLU:       {202, 255, 191},
	OpMaxPool2D:  {255, 173, 173},
	OpUpSample2D: {189, 178, 255},
	OpAdd:        {253, 255, 182},
}

// fillColor returns the DOT fill colour of a layer kind as a hex string.
func fillColor(op Op) string {
	rgb, ok := opColors[op]
	if !ok {
		return "#ffffff"
	}
	c, err := colors.RGB(rgb[0], rgb[1], rgb[2])
	if err != nil {
		return "#ffffff"
	}
	return c.ToHEX().String()
}

// WriteDOT renders the model as a Graphviz digraph, one box per layer
// coloured by layer kind.
func (m *Model) WriteDOT(w io.Writer) error {
	err := draw.DOT(m.dag, w,
		draw.GraphAttribute("rankdir", "TB"),
		draw.GraphAttribute("label", m.name),
	)
	if err != nil {
		return errors.Wrap(err, "unable to draw model")
	}
	return nil
}
