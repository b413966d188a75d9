package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/graph"
)

func summaryHandler(cmd *cobra.Command, _ []string) error {
	_, m, err := buildModel(cmd)
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), m)
}

// writeSummary prints one row per layer in creation order followed by the
// parameter totals.
func writeSummary(w io.Writer, m *graph.Model) error {
	var data [][]string
	for _, n := range m.Layers() {
		inputs := make([]string, len(n.Inputs()))
		for i, in := range n.Inputs() {
			inputs[i] = in.Name()
		}
		data = append(data, []string{
			n.Name(),
			n.Op().String(),
			n.Shape().String(),
			strconv.Itoa(n.ParamCount()),
			strings.Join(inputs, ", "),
		})
	}

	fmt.Fprintf(w, "Model: %q\n", m.Name())
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"LAYER", "OP", "OUTPUT SHAPE", "PARAMS", "INPUTS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	total, trainable := m.ParamCount(), m.TrainableParamCount()
	fmt.Fprintf(w, "Total params: %d\n", total)
	fmt.Fprintf(w, "Trainable params: %d\n", trainable)
	fmt.Fprintf(w, "Non-trainable params: %d\n", total-trainable)
	return nil
}
