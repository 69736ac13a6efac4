package pipeline

import (
	"go.starlark.net/starlark"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// Reflector binds task descriptors to the entry points generated for them.
type Reflector struct{}

// NewReflector creates a new Reflector.
func NewReflector() *Reflector {
	return &Reflector{}
}

// Reflect binds every task and reads every captured variable back from the loaded module.
// A generated binding that is absent, or a task binding that is not callable, fails with
// ErrEntryPointMissing.
func (r *Reflector) Reflect(
	mod *LoadedModule,
	analyzed *AnalyzedScript,
	rewritten *RewrittenScript,
) ([]*domain.Task, []domain.EnvironmentVariable, error) {
	for _, t := range analyzed.Tasks {
		v, ok := mod.Lookup(t.EntryPoint)
		fn, callable := v.(starlark.Callable)
		if !ok || !callable {
			return nil, nil, zerr.With(zerr.With(domain.ErrEntryPointMissing, "task", t.Name), "entry_point", t.EntryPoint)
		}
		t.Bind(&entry{module: mod, task: t.Name, fn: fn})

		if !t.ParamsKnown {
			if impl, ok := mod.Lookup(rewritten.Impls[t.Name]); ok {
				t.Params, t.ParamsKnown = functionParams(impl)
			}
		}
	}

	vars := make([]domain.EnvironmentVariable, 0, len(rewritten.Captured))
	for _, v := range rewritten.Captured {
		value, ok := mod.Lookup(v.Binding)
		s, isString := starlark.AsString(value)
		if !ok || !isString {
			return nil, nil, zerr.With(zerr.With(domain.ErrEntryPointMissing, "variable", v.Name), "entry_point", v.Binding)
		}
		v.Value = s
		vars = append(vars, v)
	}
	return analyzed.Tasks, vars, nil
}

// functionParams reads the parameter shape of a loaded Starlark function.
// Parameters are laid out as ordinary, keyword-only, *args, **kwargs.
func functionParams(v starlark.Value) ([]domain.Param, bool) {
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, false
	}

	n := fn.NumParams()
	kwargs := 0
	if fn.HasKwargs() {
		kwargs = 1
	}
	varargs := 0
	if fn.HasVarargs() {
		varargs = 1
	}
	ordinary := n - fn.NumKwonlyParams() - varargs - kwargs

	params := make([]domain.Param, 0, n)
	for i := range n {
		name, _ := fn.Param(i)
		p := domain.Param{Name: name}
		switch {
		case i < ordinary:
			p.Kind = domain.ParamPositional
			if d := fn.ParamDefault(i); d != nil {
				p.Kind = domain.ParamOptional
				p.Default = d.String()
			}
		case i < n-varargs-kwargs:
			p.Kind = domain.ParamKeywordOnly
			if d := fn.ParamDefault(i); d != nil {
				p.Default = d.String()
			}
		case varargs == 1 && i == n-kwargs-1:
			p.Kind = domain.ParamVarargs
		default:
			p.Kind = domain.ParamKwargs
		}
		params = append(params, p)
	}
	return params, true
}
