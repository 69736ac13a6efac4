package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/scribe/internal/app"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the tasks and variables of the build script",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			build, err := buildOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.List(cmd.Context(), cmd.OutOrStdout(), app.ListOptions{
				BuildOptions: build,
				JSON:         c.json,
			})
		},
	}
	addBuildFlags(cmd)
	return cmd
}
