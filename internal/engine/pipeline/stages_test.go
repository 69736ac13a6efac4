package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/adapters/registry"
	"go.trai.ch/scribe/internal/adapters/shell"
	"go.trai.ch/scribe/internal/core/domain"
)

const cleanScript = "def clean():\n    pass\n\ntask(clean)\n"

func TestEmitter_RewrittenCompilationFailure(t *testing.T) {
	analyzed := analyze(t, cleanScript, nil)
	bad := &RewrittenScript{Text: "def clean(:\n"}

	emitted, err := NewEmitter().Emit(analyzed, bad, false)
	require.Error(t, err)
	assert.Nil(t, emitted)

	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.ErrorIs(t, err, domain.ErrRewrittenScriptCompilationFailed)
	assert.Equal(t, cleanScript, diagErr.Source)
	assert.Equal(t, bad.Text, diagErr.Rewritten)
	require.NotEmpty(t, diagErr.Diagnostics)
	assert.Equal(t, 1, diagErr.Diagnostics[0].Pos.Line)
}

func TestEmitter_DebugSymbols(t *testing.T) {
	analyzed := analyze(t, cleanScript, nil)
	rewritten := NewRewriter().Rewrite(analyzed)

	plain, err := NewEmitter().Emit(analyzed, rewritten, false)
	require.NoError(t, err)
	assert.Nil(t, plain.Symbols)
	assert.NotEmpty(t, plain.Assembly)

	debug, err := NewEmitter().Emit(analyzed, rewritten, true)
	require.NoError(t, err)
	require.NotNil(t, debug.Symbols)

	table, err := DecodeSymbols(debug.Symbols)
	require.NoError(t, err)
	assert.Equal(t, "build", table.Module)
	assert.Equal(t, cleanScript, table.Source)
	assert.Equal(t, rewritten.Text, table.Rewritten)
	require.Len(t, table.Symbols, 1)
	assert.Equal(t, "__scribe_task_clean", table.Symbols[0].Binding)
}

func TestDecodeSymbols_Invalid(t *testing.T) {
	_, err := DecodeSymbols([]byte{0xc1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrSymbolsDecodeFailed.Error())
}

func TestReflector_EntryPointMissing(t *testing.T) {
	analyzed := analyze(t, cleanScript, nil)
	// A unit that drops the generated wrapper breaks the naming contract.
	rewritten := &RewrittenScript{Text: "def clean():\n    pass\n", Impls: map[string]string{"clean": "clean"}}

	emitted, err := NewEmitter().Emit(analyzed, rewritten, false)
	require.NoError(t, err)

	in := domain.NewBuildInput(analyzed.Source, nil, false)
	loader := NewModuleLoader(registry.New(), shell.NewExecutor(), quietLogger(t))
	mod, err := loader.Load(context.Background(), in, analyzed.References, emitted)
	require.NoError(t, err)

	tasks, vars, err := NewReflector().Reflect(mod, analyzed, rewritten)
	require.Error(t, err)
	assert.Nil(t, tasks)
	assert.Nil(t, vars)
	assert.Contains(t, err.Error(), domain.ErrEntryPointMissing.Error())

	var zErr interface{ Metadata() map[string]any }
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "clean", zErr.Metadata()["task"])
	assert.Equal(t, "__scribe_task_clean", zErr.Metadata()["entry_point"])
}

func TestReflector_NonCallableEntryPoint(t *testing.T) {
	analyzed := analyze(t, cleanScript, nil)
	rewritten := &RewrittenScript{Text: "__scribe_task_clean = 1\n", Impls: map[string]string{}}

	emitted, err := NewEmitter().Emit(analyzed, rewritten, false)
	require.NoError(t, err)

	in := domain.NewBuildInput(analyzed.Source, nil, false)
	mod, err := NewModuleLoader(registry.New(), shell.NewExecutor(), quietLogger(t)).
		Load(context.Background(), in, analyzed.References, emitted)
	require.NoError(t, err)

	_, _, err = NewReflector().Reflect(mod, analyzed, rewritten)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrEntryPointMissing.Error())
}

func TestFunctionParams(t *testing.T) {
	globals, err := starlark.ExecFile(&starlark.Thread{}, "f.star",
		"def f(a, b = 1, *args, c, d = \"x\", **kw):\n    pass\n", nil)
	require.NoError(t, err)

	params, ok := functionParams(globals["f"])
	require.True(t, ok)
	assert.Equal(t, []domain.Param{
		{Name: "a", Kind: domain.ParamPositional},
		{Name: "b", Kind: domain.ParamOptional, Default: "1"},
		{Name: "c", Kind: domain.ParamKeywordOnly},
		{Name: "d", Kind: domain.ParamKeywordOnly, Default: `"x"`},
		{Name: "args", Kind: domain.ParamVarargs},
		{Name: "kw", Kind: domain.ParamKwargs},
	}, params)

	_, ok = functionParams(starlark.NewBuiltin("b", nil))
	assert.False(t, ok)
}

func TestLineIndex(t *testing.T) {
	idx := newLineIndex("ab\nüx\n")

	tests := []struct {
		line, col int32
		want      int
	}{
		{1, 1, 0},
		{1, 3, 2},
		{2, 1, 3},
		{2, 2, 5},
		{9, 1, 7},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idx.offset(syntaxPos(tt.line, tt.col)))
	}
}

func syntaxPos(line, col int32) syntax.Position {
	name := "t.star"
	return syntax.MakePosition(&name, line, col)
}
