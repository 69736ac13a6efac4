package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/scribe/internal/app"
	"go.trai.ch/zerr"
)

var errInvalidDefine = zerr.New("invalid substitution, expected NAME=VALUE")

// addBuildFlags registers the flags every building command shares.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("define", "D", nil, "Substitute an environment variable (NAME=VALUE, repeatable)")
	cmd.Flags().Bool("debug", false, "Emit debug symbols")
	cmd.Flags().StringP("file", "f", "", "Build script to use instead of the configured one")
}

func buildOptions(cmd *cobra.Command) (app.BuildOptions, error) {
	defines, _ := cmd.Flags().GetStringArray("define")
	debug, _ := cmd.Flags().GetBool("debug")
	file, _ := cmd.Flags().GetString("file")

	subs := make(map[string]string, len(defines))
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok || name == "" {
			return app.BuildOptions{}, zerr.With(errInvalidDefine, "define", d)
		}
		subs[name] = value
	}

	return app.BuildOptions{
		Script:        file,
		Substitutions: subs,
		Debug:         debug,
	}, nil
}
