package pipeline

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.trai.ch/scribe/internal/build"
	"go.trai.ch/scribe/internal/core/domain"
)

const (
	taskMarker = "task"
	envMarker  = "env"

	// SelfModule is the name scripts reach the engine's own surface under.
	SelfModule = "scribe"
)

// builtinNames lists the modules that ship with the engine, in the order they are seeded.
var builtinNames = []string{"json", "math", "time", "struct", SelfModule}

// builtinModule is a module implemented in Go.
// value is what the name is bound to as a namespace, members is what load() sees.
type builtinModule struct {
	value   starlark.Value
	members starlark.StringDict
}

// dict returns the bindings visible to load(): every member plus the module itself.
func (m builtinModule) dict(name string) starlark.StringDict {
	d := maps.Clone(m.members)
	d[name] = m.value
	return d
}

var builtinModules = sync.OnceValue(func() map[string]builtinModule {
	structFn := starlark.NewBuiltin("struct", starlarkstruct.Make)
	self := &starlarkstruct.Module{
		Name: SelfModule,
		Members: starlark.StringDict{
			taskMarker:   starlark.NewBuiltin(taskMarker, markerBuiltin),
			envMarker:    starlark.NewBuiltin(envMarker, markerBuiltin),
			"sh":         starlark.NewBuiltin("sh", shBuiltin),
			"getenv":     starlark.NewBuiltin("getenv", getenvBuiltin),
			"info":       starlark.NewBuiltin("info", infoBuiltin),
			"warn":       starlark.NewBuiltin("warn", warnBuiltin),
			"references": starlark.NewBuiltin("references", referencesBuiltin),
			"version":    starlark.String(build.Version),
			"os":         starlark.String(runtime.GOOS),
			"arch":       starlark.String(runtime.GOARCH),
		},
	}
	self.Freeze()

	return map[string]builtinModule{
		"json":     {value: json.Module, members: json.Module.Members},
		"math":     {value: math.Module, members: math.Module.Members},
		"time":     {value: time.Module, members: time.Module.Members},
		"struct":   {value: structFn, members: starlark.StringDict{"struct": structFn, "module": starlark.NewBuiltin("module", starlarkstruct.MakeModule)}},
		SelfModule: {value: self, members: self.Members},
	}
})

// markers are predeclared in every compiled unit. Evaluating one means the analyzer did not
// recognize the call as a declaration.
var markers = sync.OnceValue(func() starlark.StringDict {
	self := builtinModules()[SelfModule].members
	return starlark.StringDict{taskMarker: self[taskMarker], envMarker: self[envMarker]}
})

// dependencyPredeclared is what modules other than the build script see: every builtin module
// plus the markers.
var dependencyPredeclared = sync.OnceValue(func() starlark.StringDict {
	d := maps.Clone(markers())
	for name, m := range builtinModules() {
		d[name] = m.value
	}
	return d
})

func isDependencyPredeclared(name string) bool {
	_, ok := dependencyPredeclared()[name]
	return ok
}

// DefaultReferences returns a ReferenceSet seeded with the builtin modules, each also
// predeclared as a namespace.
func DefaultReferences() *domain.ReferenceSet {
	set := domain.NewReferenceSet()
	for _, name := range builtinNames {
		set.Add(domain.NewBuiltinReference(name))
		set.AddNamespace(name)
	}
	return set
}

func markerBuiltin(_ *starlark.Thread, fn *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return nil, fmt.Errorf("%s: declarations are only allowed as top-level statements of the build script", fn.Name())
}

func shBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		cmd     string
		dir     string
		env     *starlark.Dict
		capture bool
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "cmd", &cmd, "dir?", &dir, "env?", &env, "capture?", &capture); err != nil {
		return nil, err
	}

	s, err := sessionOf(thread, fn)
	if err != nil {
		return nil, err
	}

	switch {
	case dir == "":
		dir = s.root
	case !filepath.IsAbs(dir):
		dir = filepath.Join(s.root, dir)
	}

	var vars []string
	if env != nil {
		for _, item := range env.Items() {
			k, kok := starlark.AsString(item[0])
			v, vok := starlark.AsString(item[1])
			if !kok || !vok {
				return nil, fmt.Errorf("%s: env must map strings to strings, got %s: %s", fn.Name(), item[0].Type(), item[1].Type())
			}
			vars = append(vars, k+"="+v)
		}
	}

	stdout, stderr := s.output(thread)
	var captured bytes.Buffer
	if capture {
		stdout = &captured
	}

	if err := s.executor.Execute(contextOf(thread), cmd, dir, vars, stdout, stderr); err != nil {
		return nil, err
	}
	if capture {
		return starlark.String(captured.String()), nil
	}
	return starlark.None, nil
}

func getenvBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var fallback starlark.Value = starlark.None
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "key", &key, "default?", &fallback); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(key); ok {
		return starlark.String(v), nil
	}
	return fallback, nil
}

func infoBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return logBuiltin(thread, fn, args, kwargs, func(s *session, msg string) { s.logger.Info(msg) })
}

func warnBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return logBuiltin(thread, fn, args, kwargs, func(s *session, msg string) { s.logger.Warn(msg) })
}

func logBuiltin(
	thread *starlark.Thread,
	fn *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
	emit func(*session, string),
) (starlark.Value, error) {
	var msg string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &msg); err != nil {
		return nil, err
	}
	s, err := sessionOf(thread, fn)
	if err != nil {
		return nil, err
	}
	emit(s, fmt.Sprintf("%s: %s", thread.CallFrame(1).Pos, msg))
	return starlark.None, nil
}

func referencesBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s, err := sessionOf(thread, fn)
	if err != nil {
		return nil, err
	}

	refs := s.refs.References()
	out := make([]starlark.Value, 0, len(refs))
	for _, ref := range refs {
		out = append(out, starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"name":     starlark.String(ref.Name),
			"path":     starlark.String(ref.Path),
			"identity": starlark.String(ref.Identity()),
			"kind":     starlark.String(ref.Kind.String()),
		}))
	}
	return starlark.NewList(out), nil
}
