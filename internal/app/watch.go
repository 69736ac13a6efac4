package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/scribe/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/scribe/internal/core/domain"
)

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	RunOptions
	// Debounce is how long changes must settle before a rebuild. Zero selects the default.
	Debounce time.Duration
}

// Watch runs the targets, then rebuilds and reruns them whenever a script, module or the
// config file below the project root changes. Failed builds and runs are logged and
// watching continues. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, targetNames []string, opts WatchOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	project, err := a.loadProject()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.watcher.Start(ctx, project.Root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	exec := a.newExecution()
	defer exec.close(ctx)

	window := opts.Debounce
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}
	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(window, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})

	go func() {
		for event := range a.watcher.Events() {
			if domain.IsWatched(event.Path) {
				debouncer.Add(event.Path)
			}
		}
	}()

	a.runOnce(ctx, exec, targetNames, opts.RunOptions)
	a.logger.Info("watching " + project.Root + " for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info(fmt.Sprintf("changed: %s", describe(project.Root, paths)))
			a.runOnce(ctx, exec, targetNames, opts.RunOptions)
		}
	}
}

func (a *App) runOnce(ctx context.Context, exec *execution, targetNames []string, opts RunOptions) {
	_, result, err := a.build(ctx, opts.BuildOptions)
	if err != nil {
		a.logger.Error(err)
		return
	}
	if err := exec.run(ctx, result, targetNames, opts.Parallelism); err != nil && ctx.Err() == nil {
		a.logger.Error(err)
	}
}

func describe(root string, paths []string) string {
	rel := make([]string, len(paths))
	for i, p := range paths {
		rel[i] = relativeTo(root, p)
	}
	return strings.Join(rel, ", ")
}
