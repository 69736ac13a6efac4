package domain

import (
	"maps"
	"runtime"
	"slices"
)

// BuildInput is one build request.
// It is not modified after construction except by AttachDependencies.
type BuildInput struct {
	Source        ScriptSource
	Substitutions map[string]string
	Debug         bool
	// Root is the directory "//" paths in load() are relative to.
	Root string
	// Target is the platform identifier handed to the dependency resolver.
	Target string

	dependencies []string
	resolved     bool
}

// NewBuildInput creates a BuildInput. Empty Root and Target fields are defaulted from the source
// directory and the host OS.
func NewBuildInput(src ScriptSource, substitutions map[string]string, debug bool) *BuildInput {
	in := &BuildInput{
		Source:        src,
		Substitutions: maps.Clone(substitutions),
		Debug:         debug,
		Root:          src.Dir(),
		Target:        runtime.GOOS,
	}
	if in.Substitutions == nil {
		in.Substitutions = map[string]string{}
	}
	return in
}

// AttachDependencies records the module files the script needs.
// Once attached, automatic dependency resolution is skipped.
func (in *BuildInput) AttachDependencies(paths []string) {
	in.dependencies = slices.Clone(paths)
	in.resolved = true
}

// Dependencies returns the attached dependency list and whether one was attached.
func (in *BuildInput) Dependencies() ([]string, bool) {
	return slices.Clone(in.dependencies), in.resolved
}

// Module is a loaded, executable module.
// It lives as long as the process.
type Module interface {
	Name() string
	// Globals returns the names bound at the top level of the module, sorted.
	Globals() []string
}

// BuildResult is the product of a successful build.
type BuildResult struct {
	ID         string
	Tasks      []*Task
	References []AssemblyReference
	Variables  []EnvironmentVariable
	Assembly   []byte
	Symbols    []byte
	Module     Module
}

// Task returns the task with the given name.
func (r *BuildResult) Task(name string) (*Task, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Variable returns the captured variable with the given name.
func (r *BuildResult) Variable(name string) (EnvironmentVariable, bool) {
	for _, v := range r.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return EnvironmentVariable{}, false
}

// Graph builds and validates the dependency graph of the result's tasks.
func (r *BuildResult) Graph() (*Graph, error) {
	g := NewGraph()
	for _, t := range r.Tasks {
		if err := g.AddTask(t); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
