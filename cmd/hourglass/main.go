// Package main provides the hourglass command line.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/cli"
)

func main() {
	cobra.CheckErr(cli.NewCLI().ExecuteContext(context.Background()))
}
