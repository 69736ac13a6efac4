package domain

import (
	"context"
	"io"
	"strings"

	"go.trai.ch/zerr"
)

// ParamKind describes how a task parameter is bound.
type ParamKind uint8

const (
	// ParamPositional is a required parameter.
	ParamPositional ParamKind = iota
	// ParamOptional is a parameter with a default value.
	ParamOptional
	// ParamKeywordOnly is a parameter after a bare * or *args.
	ParamKeywordOnly
	// ParamVarargs collects extra positional arguments.
	ParamVarargs
	// ParamKwargs collects extra named arguments.
	ParamKwargs
)

// Param is one parameter of a task's callable.
type Param struct {
	Name    string    `json:"name"`
	Kind    ParamKind `json:"kind"`
	Default string    `json:"default,omitempty"`
}

func (p Param) String() string {
	switch p.Kind {
	case ParamVarargs:
		return "*" + p.Name
	case ParamKwargs:
		return "**" + p.Name
	case ParamOptional, ParamKeywordOnly:
		if p.Default != "" {
			return p.Name + "=" + p.Default
		}
	}
	return p.Name
}

// Args are the arguments a task is invoked with.
// Stdout and Stderr, when set, receive the output of commands the task runs.
type Args struct {
	Positional []string
	Named      map[string]string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Entry is a callable bound inside a loaded module.
type Entry interface {
	Call(ctx context.Context, args Args) error
}

// Task is a named unit of build work declared in a script.
// It is a pure descriptor until Bind attaches the generated entry point.
type Task struct {
	Name         string
	Description  string
	Dependencies []string
	Params       []Param
	// ParamsKnown is false when the callable's shape could not be read from the source.
	ParamsKnown bool
	// EntryPoint is the generated global the task is reachable under.
	EntryPoint string
	// Target is the callable expression as written in the script.
	Target string
	Pos    Position

	entry Entry
}

// Bind attaches the callable the task invokes.
func (t *Task) Bind(e Entry) {
	t.entry = e
}

// Bound reports whether the task has an entry point.
func (t *Task) Bound() bool {
	return t.entry != nil
}

// Invoke runs the task's entry point.
func (t *Task) Invoke(ctx context.Context, args Args) error {
	if t.entry == nil {
		return zerr.With(ErrTaskNotBound, "task", t.Name)
	}
	return t.entry.Call(ctx, args)
}

// Signature renders the task's parameter list, e.g. "(target, verbose=False)".
func (t *Task) Signature() string {
	if !t.ParamsKnown {
		return "(...)"
	}
	parts := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
