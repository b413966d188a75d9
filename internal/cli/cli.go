// Package cli implements the hourglass command line.
package cli

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/envconfig"
)

// Version is reported by the version command.
var Version = "v0.1.0-dev"

func envHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, name := range names {
		v := vars[name]
		table.Append([]string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	table.Render()
	return nil
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hourglass",
		Short: "Stacked hourglass network builder",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	cobra.EnableCommandSorting = false

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the layers of a network",
		Args:  cobra.NoArgs,
		RunE:  summaryHandler,
	}
	addModelFlags(summaryCmd)

	dotCmd := &cobra.Command{
		Use:   "dot",
		Short: "Write the network graph in Graphviz DOT format",
		Args:  cobra.NoArgs,
		RunE:  dotHandler,
	}
	addModelFlags(dotCmd)
	dotCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	topologyCmd := &cobra.Command{
		Use:   "topology",
		Short: "Export the network topology and print its fingerprint",
		Args:  cobra.NoArgs,
		RunE:  topologyHandler,
	}
	addModelFlags(topologyCmd)
	topologyCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	topologyCmd.Flags().String("format", "json", "Encoding: json or cbor")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize weights and save them as SafeTensors",
		Args:  cobra.NoArgs,
		RunE:  initHandler,
	}
	addModelFlags(initCmd)
	initCmd.Flags().StringP("output", "o", "", "Weights file to write")
	initCmd.Flags().String("dtype", "f32", "Stored precision: f32, f16 or bf16")
	initCmd.Flags().Int64("seed", envconfig.Seed, "Initialization seed (default $HOURGLASS_SEED)")

	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the network and print the final heatmap peaks",
		Args:  cobra.NoArgs,
		RunE:  predictHandler,
	}
	addModelFlags(predictCmd)
	predictCmd.Flags().String("weights", "", "SafeTensors weights (default: freshly initialized)")
	predictCmd.Flags().String("image", "", "SafeTensors file with an NHWC \"input\" tensor (default: random noise)")
	predictCmd.Flags().Int("batch", 1, "Batch size of the random input")
	predictCmd.Flags().Int64("seed", envconfig.Seed, "Seed for initialization and random input")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Print recognized environment variables",
		Args:  cobra.NoArgs,
		RunE:  envHandler,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hourglass %s\n", Version)
		},
	}

	rootCmd.AddCommand(
		summaryCmd,
		dotCmd,
		topologyCmd,
		initCmd,
		predictCmd,
		envCmd,
		versionCmd,
	)

	return rootCmd
}
