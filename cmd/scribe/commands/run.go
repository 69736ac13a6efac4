package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/scribe/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run tasks and everything they depend on",
		Long:  `Run tasks and everything they depend on. The target "all" selects every task.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Run(cmd.Context(), args, opts)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	addBuildFlags(cmd)
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of tasks run at once (default: number of CPUs)")
}

func runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	build, err := buildOptions(cmd)
	if err != nil {
		return app.RunOptions{}, err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	return app.RunOptions{BuildOptions: build, Parallelism: jobs}, nil
}
