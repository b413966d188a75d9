package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/backend/cpu"
	"github.com/born-ml/hourglass/internal/hourglass"
	"github.com/born-ml/hourglass/internal/nn"
	"github.com/born-ml/hourglass/internal/serialization"
	"github.com/born-ml/hourglass/internal/tensor"
)

// InputTensor is the name predict looks up in a SafeTensors input file.
const InputTensor = "input"

func initHandler(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return errors.New("--output is required")
	}
	dtypeFlag, _ := cmd.Flags().GetString("dtype")
	dtype, err := tensor.ParseDataType(dtypeFlag)
	if err != nil {
		return err
	}

	cfg, m, err := buildModel(cmd)
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	w, err := nn.InitWeights(cmd.Context(), m, seed, parallelConfig())
	if err != nil {
		return err
	}

	config, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	meta, err := nn.SaveCheckpoint(path, m, w, dtype, string(config))
	if err != nil {
		return err
	}

	newLogger(cmd.ErrOrStderr()).Info("weights written",
		"path", path, "dtype", dtype, "tensors", w.Len(), "values", w.Count(), "run_id", meta.RunID)
	return nil
}

// readInput returns the NHWC batch predict runs on: the "input" tensor of a
// SafeTensors file, or standard normal noise when path is empty.
func readInput(path string, cfg hourglass.Config, batch int, seed int64) (*tensor.RawTensor, error) {
	if path == "" {
		if batch < 1 {
			return nil, errors.Errorf("--batch must be >= 1, got %d", batch)
		}
		return tensor.Randn(cfg.InputShape.NHWC(batch), rand.New(rand.NewSource(seed)))
	}

	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	x, ok := f.Tensors[InputTensor]
	if !ok {
		return nil, errors.Errorf("%s has no %q tensor", path, InputTensor)
	}
	return x, nil
}

func predictHandler(cmd *cobra.Command, _ []string) error {
	cfg, m, err := buildModel(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	seed, _ := flags.GetInt64("seed")
	weightsPath, _ := flags.GetString("weights")
	imagePath, _ := flags.GetString("image")
	batch, _ := flags.GetInt("batch")

	var w *nn.Weights
	if weightsPath != "" {
		ckpt, err := nn.LoadCheckpoint(weightsPath, m)
		if err != nil {
			return err
		}
		w = ckpt.Weights
	} else if w, err = nn.InitWeights(cmd.Context(), m, seed, parallelConfig()); err != nil {
		return err
	}

	input, err := readInput(imagePath, cfg, batch, seed)
	if err != nil {
		return err
	}

	exec := &nn.Executor{
		Model:   m,
		Weights: w,
		Backend: cpu.NewWithConfig(parallelConfig()),
		Logger:  newLogger(cmd.ErrOrStderr()),
	}
	outputs, err := exec.Forward(cmd.Context(), input)
	if err != nil {
		return err
	}

	peaks, err := nn.Peaks(outputs[len(outputs)-1])
	if err != nil {
		return err
	}
	writePeaks(cmd.OutOrStdout(), peaks)
	return nil
}

// writePeaks prints one row per sample and joint. X and Y are the peak
// position scaled back to input pixels.
func writePeaks(w io.Writer, peaks []nn.Peak) {
	var data [][]string
	for _, p := range peaks {
		data = append(data, []string{
			strconv.Itoa(p.Sample),
			strconv.Itoa(p.Joint),
			strconv.Itoa(p.Col * hourglass.StemStride),
			strconv.Itoa(p.Row * hourglass.StemStride),
			fmt.Sprintf("%.4f", p.Score),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"SAMPLE", "JOINT", "X", "Y", "SCORE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
