package app

import (
	"context"
	"strings"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// CallOptions configuration for the Call method.
type CallOptions struct {
	BuildOptions
}

// ParseArgs splits command line arguments into positional ones and name=value pairs.
// Everything after "--" is positional.
func ParseArgs(raw []string) domain.Args {
	args := domain.Args{Named: map[string]string{}}
	for i, arg := range raw {
		if arg == "--" {
			args.Positional = append(args.Positional, raw[i+1:]...)
			break
		}
		name, value, ok := strings.Cut(arg, "=")
		if ok && isIdentifier(name) {
			args.Named[name] = value
			continue
		}
		args.Positional = append(args.Positional, arg)
	}
	return args
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

// Call builds the script and invokes one task with the given arguments.
// Dependencies of the task are not run.
func (a *App) Call(ctx context.Context, taskName string, rawArgs []string, opts CallOptions) error {
	_, result, err := a.build(ctx, opts.BuildOptions)
	if err != nil {
		return err
	}

	task, ok := result.Task(taskName)
	if !ok {
		return zerr.With(domain.ErrTaskNotFound, "task", taskName)
	}

	args := ParseArgs(rawArgs)
	args.Stdout = a.stdout
	args.Stderr = a.stderr
	if err := task.Invoke(ctx, args); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", taskName)
	}
	return nil
}
