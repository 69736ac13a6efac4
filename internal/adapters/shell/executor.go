// Package shell runs shell commands with an embedded POSIX interpreter, so sh() behaves the same on every platform.
package shell

import (
	"context"
	"io"
	"os"
	"strings"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using mvdan.cc/sh.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute parses script and runs it with errexit set.
func (e *Executor) Execute(ctx context.Context, script, dir string, env []string, stdout, stderr io.Writer) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "sh")
	if err != nil {
		return zerr.Wrap(err, domain.ErrShellParseFailed.Error())
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(append(os.Environ(), env...)...)),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e"),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return zerr.Wrap(err, domain.ErrShellCommandFailed.Error())
	}

	if err := runner.Run(ctx, file); err != nil {
		exitCode := -1
		if status, ok := interp.IsExitStatus(err); ok {
			exitCode = int(status)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrShellCommandFailed.Error()), "exit_code", exitCode)
	}
	return nil
}
