// Package domain contains the core models of scribe: scripts, references, tasks and build results.
package domain

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the dependency graph of the tasks of one build.
type Graph struct {
	tasks          map[string]*Task
	executionOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[string]*Task),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name)
	}
	g.tasks[t.Name] = t
	return nil
}

// Task returns the task with the given name.
func (g *Graph) Task(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// Validate checks for missing dependencies and cycles using a topological sort.
// Tasks are visited in name order so the execution order is deterministic.
func (g *Graph) Validate() error {
	g.executionOrder = make([]string, 0, len(g.tasks))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		visited[u] = 1
		path = append(path, u)

		task := g.tasks[u]
		for _, dep := range task.Dependencies {
			if _, exists := g.tasks[dep]; !exists {
				return zerr.With(zerr.With(ErrMissingDependency, "dependency", dep), "task", u)
			}
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(g.tasks)) {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *Graph) buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Closure returns the named tasks and everything they transitively depend on, in execution order.
// The reserved target "all" selects every task.
func (g *Graph) Closure(targets []string) ([]*Task, error) {
	want := make(map[string]bool)
	var mark func(name string) error
	mark = func(name string) error {
		if want[name] {
			return nil
		}
		t, ok := g.tasks[name]
		if !ok {
			return zerr.With(ErrTaskNotFound, "task", name)
		}
		want[name] = true
		for _, dep := range t.Dependencies {
			if err := mark(dep); err != nil {
				return err
			}
		}
		return nil
	}

	for _, target := range targets {
		if target == AllTasks {
			for name := range g.tasks {
				want[name] = true
			}
			continue
		}
		if err := mark(target); err != nil {
			return nil, err
		}
	}

	var out []*Task
	for t := range g.Walk() {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}
