package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.starlark.net/starlark"
	"go.trai.ch/scribe/internal/adapters/fs"
	"go.trai.ch/scribe/internal/adapters/registry"
	"go.trai.ch/scribe/internal/adapters/shell"
	"go.trai.ch/scribe/internal/adapters/telemetry"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/scribe/internal/core/ports/mocks"
	"go.trai.ch/scribe/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func newEngine(t *testing.T, log ports.Logger, tracer ports.Tracer) (*pipeline.Engine, *bytes.Buffer) {
	t.Helper()
	if log == nil {
		log = quietLogger(t)
	}
	if tracer == nil {
		tracer = telemetry.NewNoOpTracer()
	}
	e := pipeline.NewEngine(fs.NewResolver(), fs.NewHasher(), registry.New(), shell.NewExecutor(), log, tracer)
	out := &bytes.Buffer{}
	e.SetOutput(out, out)
	return e, out
}

func inline(text string, subs map[string]string, debug bool) *domain.BuildInput {
	return domain.NewBuildInput(domain.NewInlineSource("build.star", text), subs, debug)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

func spanNames(sr *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestEngine_AddReferenceIsIdempotent(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	dir := writeFiles(t, map[string]string{"lib.star": "x = 1\n"})
	path := filepath.Join(dir, "lib.star")

	before := len(e.References())
	_, err := e.AddReferenceFile(path)
	require.NoError(t, err)
	_, err = e.AddReferenceFile(filepath.Join(dir, ".", "lib.star"))
	require.NoError(t, err)

	assert.Len(t, e.References(), before+1)
	assert.False(t, e.AddReference(domain.NewBuiltinReference("json")))
}

func TestEngine_AddReferenceFileMissing(t *testing.T) {
	e, _ := newEngine(t, nil, nil)

	_, err := e.AddReferenceFile(filepath.Join(t.TempDir(), "missing.star"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrReferenceHashFailed.Error())
}

func TestEngine_SubstitutionPrecedence(t *testing.T) {
	script := "X = env(\"a\")\n"

	tests := []struct {
		name string
		subs map[string]string
		want string
	}{
		{name: "default", subs: nil, want: "a"},
		{name: "substituted", subs: map[string]string{"X": "b"}, want: "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, nil, nil)
			result, err := e.Build(context.Background(), inline(script, tt.subs, false))
			require.NoError(t, err)

			require.Len(t, result.Variables, 1)
			assert.Equal(t, "X", result.Variables[0].Name)
			assert.Equal(t, tt.want, result.Variables[0].Value)
			assert.Equal(t, "a", result.Variables[0].Default)
			assert.Equal(t, tt.subs != nil, result.Variables[0].Overridden)
		})
	}
}

func TestEngine_EmptyScript(t *testing.T) {
	e, _ := newEngine(t, nil, nil)

	result, err := e.Build(context.Background(), inline("", nil, false))
	require.NoError(t, err)
	assert.Empty(t, result.Tasks)
	assert.Empty(t, result.Variables)
	assert.NotEmpty(t, result.Assembly)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "build", result.Module.Name())
}

func TestEngine_DebugParity(t *testing.T) {
	script := "def clean():\n    pass\n\ntask(clean)\nV = env(\"1\")\n"

	for _, debug := range []bool{false, true} {
		e, _ := newEngine(t, nil, nil)
		result, err := e.Build(context.Background(), inline(script, nil, debug))
		require.NoError(t, err)

		if debug {
			assert.NotNil(t, result.Symbols)
		} else {
			assert.Nil(t, result.Symbols)
		}
		_, err = starlark.CompiledProgram(bytes.NewReader(result.Assembly))
		assert.NoError(t, err)
	}
}

func TestEngine_DuplicateTaskName(t *testing.T) {
	sr := recordSpans(t)
	e, _ := newEngine(t, nil, telemetry.NewOTelTracer("test"))
	script := `def build():
    pass

def other():
    pass

task(build)
task(other, name = "build")
`

	result, err := e.Build(context.Background(), inline(script, nil, false))
	require.ErrorIs(t, err, domain.ErrDuplicateDeclaration)
	assert.Nil(t, result)

	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.Len(t, diagErr.Diagnostics, 1)
	assert.Equal(t, 8, diagErr.Diagnostics[0].Pos.Line)
	assert.Contains(t, diagErr.Diagnostics[0].Message, `"build" is already declared at build.star:7:1`)

	assert.Equal(t, []string{"compile", "analyze", "build"}, spanNames(sr))
}

func TestEngine_TaskAndVariableShareNames(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := "def f():\n    pass\n\nrelease = task(f)\nrelease2 = env(\"x\")\ntask(f, name = \"release2\")\n"

	_, err := e.Build(context.Background(), inline(script, nil, false))
	require.ErrorIs(t, err, domain.ErrDuplicateDeclaration)
}

func TestEngine_CleanScenario(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := "def clean():\n    pass\n\ntask(clean)\n"

	result, err := e.Build(context.Background(), inline(script, map[string]string{}, false))
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)

	clean := result.Tasks[0]
	assert.Equal(t, "clean", clean.Name)
	assert.True(t, clean.Bound())
	assert.Equal(t, "()", clean.Signature())
	require.NoError(t, clean.Invoke(context.Background(), domain.Args{}))
}

func TestEngine_VersionScenario(t *testing.T) {
	e, _ := newEngine(t, nil, nil)

	result, err := e.Build(context.Background(),
		inline("Version = env(\"1.0\")\n", map[string]string{"Version": "2.0"}, false))
	require.NoError(t, err)

	require.Len(t, result.Variables, 1)
	v, ok := result.Variable("Version")
	require.True(t, ok)
	assert.Equal(t, "2.0", v.Value)
}

func TestEngine_SyntaxError(t *testing.T) {
	sr := recordSpans(t)
	e, _ := newEngine(t, nil, telemetry.NewOTelTracer("test"))

	result, err := e.Build(context.Background(), inline("def broken(:\n    pass\n", nil, false))
	require.ErrorIs(t, err, domain.ErrScriptCompilationFailed)
	assert.Nil(t, result)

	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.NotEmpty(t, diagErr.Diagnostics)
	assert.Equal(t, 1, diagErr.Diagnostics[0].Pos.Line)
	assert.Contains(t, diagErr.Report(), "def broken(:")

	assert.Equal(t, []string{"compile", "build"}, spanNames(sr))
}

func TestEngine_ResolveErrorsAreCollected(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := "def f():\n    return undefined_a\n\ndef g():\n    return undefined_b\n"

	_, err := e.Build(context.Background(), inline(script, nil, false))
	require.ErrorIs(t, err, domain.ErrScriptCompilationFailed)

	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.Len(t, diagErr.Diagnostics, 2)
	assert.Equal(t, 2, diagErr.Diagnostics[0].Pos.Line)
	assert.Equal(t, 5, diagErr.Diagnostics[1].Pos.Line)
}

func TestEngine_UnusedSubstitutionWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(`substitution "Nope" does not match any env() declaration`).Times(1)

	e, _ := newEngine(t, log, nil)
	_, err := e.Build(context.Background(), inline("X = env(\"a\")\n", map[string]string{"X": "b", "Nope": "c"}, false))
	require.NoError(t, err)
}

func TestEngine_BuildsAreIndependent(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := "X = env(\"a\")\n"

	first, err := e.Build(context.Background(), inline(script, map[string]string{"X": "one"}, false))
	require.NoError(t, err)
	second, err := e.Build(context.Background(), inline(script, nil, false))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "one", first.Variables[0].Value)
	assert.Equal(t, "a", second.Variables[0].Value)
}

func TestEngine_BuildSpanAttributes(t *testing.T) {
	sr := recordSpans(t)
	e, _ := newEngine(t, nil, telemetry.NewOTelTracer("test"))

	_, err := e.Build(context.Background(), inline("def a():\n    pass\ntask(a)\n", nil, false))
	require.NoError(t, err)

	names := spanNames(sr)
	assert.Equal(t, []string{"compile", "analyze", "rewrite", "emit", "load", "reflect", "build"}, names)

	root := sr.Ended()[len(names)-1]
	attrs := map[string]any{}
	for _, kv := range root.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "build.star", attrs["script"])
	assert.Equal(t, int64(1), attrs["build.tasks"])
}
