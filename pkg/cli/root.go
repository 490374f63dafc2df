// Package cli implements the blendql command-line interface: it compiles
// workspace files of dataset and blend definitions into executable SQL
// without talking to a server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blendql",
		Short:         "Dataset blending SQL compiler",
		Long:          "Compiles dataset and blend definitions into aggregated, joined SQL statements.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newValidateCmd())

	return rootCmd
}
