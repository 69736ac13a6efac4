package app

import (
	"context"
	"errors"

	"go.trai.ch/scribe/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/scribe/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/engine/scheduler"
)

// execution runs tasks with their progress reported to a linear renderer.
// Watch mode keeps one execution for all its runs.
type execution struct {
	renderer  *linear.Renderer
	scheduler *scheduler.Scheduler
	shutdown  func(context.Context) error
}

func (a *App) newExecution() *execution {
	renderer := linear.NewRenderer(a.stdout, a.stderr)

	// Spans reach the renderer through the bridge; their output through the tracer's batchers.
	shutdown := telemetry.Setup(telemetry.NewBridge(renderer))
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName).WithRenderer(renderer)

	return &execution{
		renderer:  renderer,
		scheduler: scheduler.NewScheduler(tracer),
		shutdown:  shutdown,
	}
}

func (e *execution) run(ctx context.Context, result *domain.BuildResult, targets []string, parallelism int) error {
	graph, err := result.Graph()
	if err != nil {
		return err
	}

	err = e.scheduler.Run(ctx, graph, targets, parallelism)
	_ = e.renderer.Flush()
	if err != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return nil
}

func (e *execution) close(ctx context.Context) {
	_ = e.shutdown(ctx)
}
