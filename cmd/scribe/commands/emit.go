package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/scribe/internal/app"
)

func (c *CLI) newEmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Compile the build script into the artifact store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			build, err := buildOptions(cmd)
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("out")

			key, err := c.app.Emit(cmd.Context(), app.EmitOptions{BuildOptions: build, OutDir: outDir})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Also write the module and its symbols to this directory")
	return cmd
}
