package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workspace file",
		Long:  "Checks a YAML workspace for definition errors and unresolvable mappings without printing SQL.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := LoadWorkspace(file)
			if err != nil {
				return err
			}
			// Compiling exercises mapping resolution and field ownership
			// checks that plain validation cannot see.
			if _, err := ws.Compile(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "blendql.yaml", "Workspace file to validate")

	return cmd
}
