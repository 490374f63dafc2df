package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCompileCmd() *cobra.Command {
	var (
		file     string
		withCols bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a workspace file into SQL",
		Long:  "Reads a YAML workspace of dataset and blend definitions and prints the compiled SQL statement.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := LoadWorkspace(file)
			if err != nil {
				return err
			}
			result, err := ws.Compile()
			if err != nil {
				return err
			}
			if withCols {
				out, err := yaml.Marshal(result)
				if err != nil {
					return err
				}
				_, _ = cmd.OutOrStdout().Write(out)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.SQL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "blendql.yaml", "Workspace file to compile")
	cmd.Flags().BoolVar(&withCols, "columns", false, "Emit YAML with the statement and its output columns")

	return cmd
}
