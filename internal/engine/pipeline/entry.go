package pipeline

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.starlark.net/starlark"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// entry is a task callable bound inside a loaded module.
type entry struct {
	module *LoadedModule
	task   string
	fn     starlark.Callable
}

var _ domain.Entry = (*entry)(nil)

// Call runs the callable on a fresh thread. Positional and named arguments are passed as strings.
// Cancelling ctx cancels the thread.
func (e *entry) Call(ctx context.Context, args domain.Args) error {
	s := e.module.session
	thread := s.thread(ctx, e.task, s.dir, nil)
	if args.Stdout != nil {
		thread.SetLocal(localStdout, args.Stdout)
	}
	if args.Stderr != nil {
		thread.SetLocal(localStderr, args.Stderr)
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	positional := make(starlark.Tuple, 0, len(args.Positional))
	for _, a := range args.Positional {
		positional = append(positional, starlark.String(a))
	}
	kwargs := make([]starlark.Tuple, 0, len(args.Named))
	for _, k := range slices.Sorted(maps.Keys(args.Named)) {
		kwargs = append(kwargs, starlark.Tuple{starlark.String(k), starlark.String(args.Named[k])})
	}

	if _, err := starlark.Call(thread, e.fn, positional, kwargs); err != nil {
		return e.annotate(err)
	}
	return nil
}

// annotate attaches the backtrace and, when debug symbols are loaded, the position of the
// declaration the failing generated binding came from.
func (e *entry) annotate(err error) error {
	wrapped := zerr.With(zerr.Wrap(err, domain.ErrEvaluationFailed.Error()), "task", e.task)

	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		return wrapped
	}
	wrapped = zerr.With(wrapped, "backtrace", evalErr.Backtrace())

	if table := e.module.Symbols(); table != nil {
		for _, frame := range evalErr.CallStack {
			if sym, ok := table.ByLine(int(frame.Pos.Line)); ok && frame.Pos.Filename() == e.module.filename {
				wrapped = zerr.With(wrapped, "declared_at", sym.Declared.String())
				break
			}
		}
	}
	return wrapped
}
