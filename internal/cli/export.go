package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/graph"
)

// openOutput returns the file named by --output, or stdout when it is empty.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	//nolint:gosec // G304: output path is supplied by the user
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create output")
	}
	return f, f.Close, nil
}

func dotHandler(cmd *cobra.Command, _ []string) (err error) {
	_, m, err := buildModel(cmd)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.WriteDOT(w)
}

func topologyHandler(cmd *cobra.Command, _ []string) (err error) {
	format, _ := cmd.Flags().GetString("format")
	if f := graph.Format(format); f != graph.FormatJSON && f != graph.FormatCBOR {
		return errors.Wrapf(graph.ErrUnknownFormat, "%q", format)
	}

	_, m, err := buildModel(cmd)
	if err != nil {
		return err
	}
	fingerprint, err := m.Fingerprint()
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := m.Topology().Encode(w, graph.Format(format)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "fingerprint %s\n", fingerprint)
	return nil
}
