package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/scribe/internal/core/ports/mocks"
	"go.trai.ch/scribe/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type entryFunc func(ctx context.Context, args domain.Args) error

func (f entryFunc) Call(ctx context.Context, args domain.Args) error {
	return f(ctx, args)
}

// recorder collects the names of tasks in the order they were invoked.
type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) task(name string, deps ...string) *domain.Task {
	t := &domain.Task{Name: name, Dependencies: deps}
	t.Bind(entryFunc(func(context.Context, domain.Args) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.names = append(r.names, name)
		return nil
	}))
	return t
}

func (r *recorder) invoked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newGraph(t *testing.T, tasks ...*domain.Task) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	for _, task := range tasks {
		require.NoError(t, g.AddTask(task))
	}
	return g
}

func newTracer(ctrl *gomock.Controller) *mocks.MockTracer {
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()
	return tracer
}

func TestScheduler_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// a depends on b and c, both depend on d.
		started := map[string]chan struct{}{
			"b": make(chan struct{}), "c": make(chan struct{}), "d": make(chan struct{}),
		}
		proceed := map[string]chan struct{}{
			"b": make(chan struct{}), "c": make(chan struct{}), "d": make(chan struct{}),
		}
		blocking := func(name string, deps []string, err error) *domain.Task {
			task := &domain.Task{Name: name, Dependencies: deps}
			task.Bind(entryFunc(func(context.Context, domain.Args) error {
				close(started[name])
				<-proceed[name]
				return err
			}))
			return task
		}

		a := &domain.Task{Name: "a", Dependencies: []string{"b", "c"}}
		a.Bind(entryFunc(func(context.Context, domain.Args) error {
			t.Error("a must not run after b failed")
			return nil
		}))
		g := newGraph(t,
			a,
			blocking("b", []string{"d"}, errors.New("b failed")),
			blocking("c", []string{"d"}, nil),
			blocking("d", nil, nil),
		)

		s := scheduler.NewScheduler(newTracer(ctrl))

		errCh := make(chan error)
		go func() {
			errCh <- s.Run(context.Background(), g, []string{"a"}, 2)
		}()

		synctest.Wait()
		<-started["d"]
		status, _ := s.Status("b")
		assert.Equal(t, scheduler.StatusPending, status)

		close(proceed["d"])
		<-started["b"]
		<-started["c"]

		close(proceed["b"])
		close(proceed["c"])

		err := <-errCh
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrTaskExecutionFailed.Error())
		assert.Contains(t, err.Error(), "b failed")

		for name, want := range map[string]scheduler.TaskStatus{
			"a": scheduler.StatusPending,
			"b": scheduler.StatusFailed,
			"c": scheduler.StatusCompleted,
			"d": scheduler.StatusCompleted,
		} {
			got, ok := s.Status(name)
			assert.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})
}

func TestScheduler_Partial(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &recorder{}

	// Target a pulls in b and c but not d.
	g := newGraph(t,
		rec.task("a", "b"),
		rec.task("b", "c"),
		rec.task("c"),
		rec.task("d"),
	)

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"c", "b", "a"})
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().Times(3)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).Times(3)

	s := scheduler.NewScheduler(tracer)
	require.NoError(t, s.Run(context.Background(), g, []string{"a"}, 1))

	assert.Equal(t, []string{"c", "b", "a"}, rec.invoked())
	_, ok := s.Status("d")
	assert.False(t, ok)
}

func TestScheduler_All(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &recorder{}

	g := newGraph(t,
		rec.task("lint"),
		rec.task("build", "lint"),
		rec.task("docs"),
	)

	s := scheduler.NewScheduler(newTracer(ctrl))
	require.NoError(t, s.Run(context.Background(), g, []string{domain.AllTasks}, 0))

	invoked := rec.invoked()
	assert.ElementsMatch(t, []string{"build", "docs", "lint"}, invoked)
	assert.Less(t, indexOf(invoked, "lint"), indexOf(invoked, "build"))
}

func TestScheduler_StopsOnFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &recorder{}

	broken := &domain.Task{Name: "a"}
	broken.Bind(entryFunc(func(context.Context, domain.Args) error {
		return errors.New("exit status 1")
	}))
	g := newGraph(t, broken, rec.task("b"), rec.task("c"))

	s := scheduler.NewScheduler(newTracer(ctrl))
	err := s.Run(context.Background(), g, []string{domain.AllTasks}, 1)

	require.Error(t, err)
	assert.Empty(t, rec.invoked())

	var withMeta interface{ Metadata() map[string]any }
	require.ErrorAs(t, err, &withMeta)
	assert.Equal(t, "a", withMeta.Metadata()["task"])
}

func TestScheduler_UnboundTask(t *testing.T) {
	ctrl := gomock.NewController(t)

	g := newGraph(t, &domain.Task{Name: "build"})

	s := scheduler.NewScheduler(newTracer(ctrl))
	err := s.Run(context.Background(), g, []string{"build"}, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTaskNotBound.Error())
}

func TestScheduler_SpanReceivesOutput(t *testing.T) {
	ctrl := gomock.NewController(t)

	task := &domain.Task{Name: "build"}
	task.Bind(entryFunc(func(_ context.Context, args domain.Args) error {
		_, err := args.Stdout.Write([]byte("compiling\n"))
		return err
	}))
	g := newGraph(t, task)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().Write([]byte("compiling\n")).Return(10, nil)
	span.EXPECT().End()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"build"})
	tracer.EXPECT().Start(gomock.Any(), "build", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, opts ...ports.SpanOption) (context.Context, ports.Span) {
			var cfg ports.SpanConfig
			for _, opt := range opts {
				opt(&cfg)
			}
			assert.Equal(t, "build", cfg.Attributes[ports.TaskAttribute])
			return ctx, span
		})

	s := scheduler.NewScheduler(tracer)
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1))
}

func TestScheduler_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rec := &recorder{}

		ctx, cancel := context.WithCancel(context.Background())

		slow := &domain.Task{Name: "slow"}
		slow.Bind(entryFunc(func(ctx context.Context, _ domain.Args) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}))
		g := newGraph(t, slow, rec.task("after", "slow"))

		s := scheduler.NewScheduler(newTracer(ctrl))
		err := s.Run(ctx, g, []string{"after"}, 1)

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, rec.invoked())
	})
}

func TestScheduler_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		tasks   []*domain.Task
		targets []string
		want    error
	}{
		{
			name:  "no targets",
			tasks: []*domain.Task{{Name: "a"}},
			want:  domain.ErrNoTargetsSpecified,
		},
		{
			name:    "unknown target",
			tasks:   []*domain.Task{{Name: "a"}},
			targets: []string{"b"},
			want:    domain.ErrTaskNotFound,
		},
		{
			name:    "missing dependency",
			tasks:   []*domain.Task{{Name: "a", Dependencies: []string{"ghost"}}},
			targets: []string{"a"},
			want:    domain.ErrMissingDependency,
		},
		{
			name: "cycle",
			tasks: []*domain.Task{
				{Name: "a", Dependencies: []string{"b"}},
				{Name: "b", Dependencies: []string{"a"}},
			},
			targets: []string{"a"},
			want:    domain.ErrCycleDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tracer := mocks.NewMockTracer(ctrl)

			s := scheduler.NewScheduler(tracer)
			err := s.Run(context.Background(), newGraph(t, tt.tasks...), tt.targets, 1)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want.Error())
		})
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
