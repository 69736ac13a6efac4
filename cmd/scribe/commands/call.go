package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/scribe/internal/app"
)

func (c *CLI) newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call TASK [args...]",
		Short: "Invoke a single task with arguments",
		Long: `Invoke a single task with arguments, without running its dependencies.
Arguments of the form NAME=VALUE are passed by name, all others by position.
Arguments after "--" are always positional.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := buildOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Call(cmd.Context(), args[0], args[1:], app.CallOptions{BuildOptions: build})
		},
	}
	addBuildFlags(cmd)
	// Everything after TASK, "--" included, belongs to the task.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
