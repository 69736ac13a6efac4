package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/core/domain"
)

func TestEngine_InvalidDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		line    int
		message string
	}{
		{
			name:    "env as statement",
			script:  "env(\"a\")\n",
			line:    1,
			message: "env() must be assigned to a global",
		},
		{
			name:    "nested marker",
			script:  "def f():\n    pass\n\ndef g():\n    task(f)\n",
			line:    5,
			message: "task() must be called as a top-level statement",
		},
		{
			name:    "reserved prefix",
			script:  "__scribe_x = 1\n",
			line:    1,
			message: `names starting with "__scribe_" are reserved`,
		},
		{
			name:    "missing callable",
			script:  "task(name = \"x\")\n",
			line:    1,
			message: "task() requires the callable to run",
		},
		{
			name:    "two callables",
			script:  "def f():\n    pass\n\ntask(f, f)\n",
			line:    4,
			message: "task() takes exactly one callable",
		},
		{
			name:    "uninferable name",
			script:  "task(lambda: None)\n",
			line:    1,
			message: "cannot infer a name",
		},
		{
			name:    "reserved task name",
			script:  "def f():\n    pass\n\ntask(f, name = \"all\")\n",
			line:    4,
			message: `the task name "all" is reserved`,
		},
		{
			name:    "non-literal description",
			script:  "D = \"x\"\n\ndef f():\n    pass\n\ntask(f, desc = D)\n",
			line:    6,
			message: "task() argument desc must be a string literal",
		},
		{
			name:    "deps not a list",
			script:  "def f():\n    pass\n\ntask(f, deps = \"a\")\n",
			line:    4,
			message: "deps must be a list of string literals",
		},
		{
			name:    "unknown keyword",
			script:  "def f():\n    pass\n\ntask(f, when = \"always\")\n",
			line:    4,
			message: `unexpected keyword argument "when"`,
		},
		{
			name:    "star arguments",
			script:  "def f():\n    pass\n\nARGS = [f]\ntask(*ARGS)\n",
			line:    5,
			message: "task() arguments must be written out",
		},
		{
			name:    "marker loaded by name",
			script:  "load(\"scribe\", \"task\")\n\ndef clean():\n    pass\n\ntask(clean)\n",
			line:    1,
			message: `task cannot be loaded from "scribe"`,
		},
		{
			name:    "two env defaults",
			script:  "V = env(\"a\", \"b\")\n",
			line:    1,
			message: "env() takes at most one default value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, nil, nil)

			result, err := e.Build(context.Background(), inline(tt.script, nil, false))
			require.ErrorIs(t, err, domain.ErrInvalidDeclaration)
			assert.Nil(t, result)

			var diagErr *domain.DiagnosticError
			require.ErrorAs(t, err, &diagErr)
			require.NotEmpty(t, diagErr.Diagnostics)
			assert.Equal(t, tt.line, diagErr.Diagnostics[0].Pos.Line)
			assert.Contains(t, diagErr.Diagnostics[0].Message, tt.message)
		})
	}
}

func TestEngine_StarArgumentsReportedFirst(t *testing.T) {
	e, _ := newEngine(t, nil, nil)

	_, err := e.Build(context.Background(), inline("def f():\n    pass\n\nARGS = [f]\ntask(*ARGS)\n", nil, false))
	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.Len(t, diagErr.Diagnostics, 1)
	assert.Equal(t, 6, diagErr.Diagnostics[0].Pos.Col)
}

func TestEngine_InvalidUTF8Substitution(t *testing.T) {
	e, _ := newEngine(t, nil, nil)

	result, err := e.Build(context.Background(),
		inline("V = env(\"1\")\n", map[string]string{"V": "a\xffb"}, false))
	require.ErrorIs(t, err, domain.ErrInvalidDeclaration)
	assert.Nil(t, result)

	var diagErr *domain.DiagnosticError
	require.ErrorAs(t, err, &diagErr)
	require.Len(t, diagErr.Diagnostics, 1)
	assert.Equal(t, 1, diagErr.Diagnostics[0].Pos.Line)
	assert.Contains(t, diagErr.Diagnostics[0].Message, "substitution for V is not valid UTF-8")
}

func TestEngine_DeclarationForms(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := `def compile(target, verbose = False):
    pass

def deploy(env, region = "eu", *rest, dry = False, **extra):
    pass

tools = struct(run = lambda tool: None)

task(compile, desc = "compile sources")
package = task(lambda: None, deps = ["compile"])
scribe.task(deploy, name = "ship", deps = ("package",))
task(tools.run, name = "tool")
OUT = scribe.env(help = "output directory", default = "dist")
`

	result, err := e.Build(context.Background(), inline(script, nil, false))
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"compile", "package", "ship", "tool"}, names)

	compile, _ := result.Task("compile")
	assert.Equal(t, "compile sources", compile.Description)
	assert.Equal(t, "(target, verbose=False)", compile.Signature())
	assert.Equal(t, "compile", compile.Target)
	assert.Equal(t, domain.Position{File: "build.star", Line: 9, Col: 1}, compile.Pos)

	pkg, _ := result.Task("package")
	assert.Equal(t, []string{"compile"}, pkg.Dependencies)
	assert.Equal(t, "()", pkg.Signature())
	assert.Equal(t, "lambda: None", pkg.Target)

	ship, _ := result.Task("ship")
	assert.Equal(t, []string{"package"}, ship.Dependencies)
	assert.Equal(t, `(env, region="eu", *rest, dry=False, **extra)`, ship.Signature())

	tool, _ := result.Task("tool")
	assert.True(t, tool.ParamsKnown)
	assert.Equal(t, "(tool)", tool.Signature())

	out, ok := result.Variable("OUT")
	require.True(t, ok)
	assert.Equal(t, "dist", out.Value)
	assert.Equal(t, "output directory", out.Help)
}

func TestEngine_ShadowedMarkerIsNotADeclaration(t *testing.T) {
	e, _ := newEngine(t, nil, nil)
	script := `def clean():
    pass

def wrap(task):
    return task(clean)

x = wrap(lambda fn: fn)
`

	result, err := e.Build(context.Background(), inline(script, nil, false))
	require.NoError(t, err)
	assert.Empty(t, result.Tasks)
}
