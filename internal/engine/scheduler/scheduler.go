// Package scheduler runs the bound tasks of a build in dependency order.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	tracer ports.Tracer

	mu         sync.RWMutex
	taskStatus map[string]TaskStatus
}

// NewScheduler creates a new Scheduler.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		tracer:     tracer,
		taskStatus: make(map[string]TaskStatus),
	}
}

// Status returns the status of the named task in the most recent run.
func (s *Scheduler) Status(name string) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.taskStatus[name]
	return status, ok
}

func (s *Scheduler) updateStatus(name string, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Run executes the targets and everything they depend on.
// The target "all" selects every task of the graph. A parallelism below one means one
// task per CPU. Once a task fails no further task is started; running tasks finish.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targets []string, parallelism int) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	planned, err := graph.Closure(targets)
	if err != nil {
		return err
	}

	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}

	names := make([]string, len(planned))
	for i, t := range planned {
		names[i] = t.Name
	}
	s.tracer.EmitPlan(ctx, names)

	s.mu.Lock()
	s.taskStatus = make(map[string]TaskStatus, len(planned))
	for _, name := range names {
		s.taskStatus[name] = StatusPending
	}
	s.mu.Unlock()

	return s.newRunState(ctx, planned, parallelism).runExecutionLoop()
}

type result struct {
	task string
	err  error
}

type runState struct {
	s           *Scheduler
	ctx         context.Context
	tasks       map[string]*domain.Task
	inDegree    map[string]int
	dependents  map[string][]string
	ready       []string
	active      int
	parallelism int
	resultsCh   chan result
	errs        error
}

func (s *Scheduler) newRunState(ctx context.Context, planned []*domain.Task, parallelism int) *runState {
	state := &runState{
		s:           s,
		ctx:         ctx,
		tasks:       make(map[string]*domain.Task, len(planned)),
		inDegree:    make(map[string]int, len(planned)),
		dependents:  make(map[string][]string),
		parallelism: parallelism,
		resultsCh:   make(chan result, parallelism),
	}

	for _, t := range planned {
		state.tasks[t.Name] = t
	}
	// planned is in execution order, so ready starts out ordered as well.
	for _, t := range planned {
		for _, dep := range t.Dependencies {
			state.inDegree[t.Name]++
			state.dependents[dep] = append(state.dependents[dep], t.Name)
		}
		if state.inDegree[t.Name] == 0 {
			state.ready = append(state.ready, t.Name)
		}
	}
	return state
}

func (state *runState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *runState) isDone() bool {
	if state.errs != nil {
		return state.active == 0
	}
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil && state.errs == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(name, StatusRunning)

		go state.executeTask(state.tasks[name])
	}
}

func (state *runState) executeTask(t *domain.Task) {
	// The span ends before the result is sent so that it is recorded by the time Run returns.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name, ports.WithAttribute(ports.TaskAttribute, t.Name))
		defer span.End()

		err := t.Invoke(ctx, domain.Args{Stdout: span, Stderr: span})
		if err != nil {
			span.RecordError(err)
		}
		return result{task: t.Name, err: err}
	}()

	state.resultsCh <- res
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.err != nil {
		wrapped := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task)
		state.errs = errors.Join(state.errs, wrapped)
		state.s.updateStatus(res.task, StatusFailed)
		return
	}

	state.s.updateStatus(res.task, StatusCompleted)
	for _, dep := range state.dependents[res.task] {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}
