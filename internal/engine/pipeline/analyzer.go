package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
)

// AnalyzedScript is a compiled script together with the declarations found in it.
type AnalyzedScript struct {
	*CompiledScript

	Tasks     []*domain.Task
	Variables []domain.EnvironmentVariable

	index     *lineIndex
	taskDecls []taskDecl
	varDecls  []varDecl
}

// taskDecl is the marker call a task was declared with.
// assigned is nil for the expression form task(fn).
type taskDecl struct {
	task     *domain.Task
	call     *syntax.CallExpr
	callable syntax.Expr
	assigned *syntax.Ident
}

type varDecl struct {
	index int
	call  *syntax.CallExpr
}

// Analyzer discovers task and variable declarations.
type Analyzer struct {
	logger ports.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(logger ports.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze walks the top-level statements of the script and extracts its declarations.
// Substitutions replace the defaults of variables with the same name.
func (a *Analyzer) Analyze(compiled *CompiledScript, substitutions map[string]string) (*AnalyzedScript, error) {
	st := &analysis{
		out: &AnalyzedScript{
			CompiledScript: compiled,
			index:          newLineIndex(compiled.Source.Text()),
		},
		substitutions: substitutions,
		used:          make(map[string]bool),
		declared:      make(map[string]domain.Position),
		defs:          make(map[string]*syntax.DefStmt),
		markers:       make(map[*syntax.CallExpr]bool),
	}
	st.run()

	if len(st.invalid) > 0 {
		sortDiagnostics(st.invalid)
		return nil, domain.NewDiagnosticError(domain.ErrInvalidDeclaration, compiled.Source.Text(), st.invalid...)
	}
	if len(st.duplicates) > 0 {
		return nil, domain.NewDiagnosticError(domain.ErrDuplicateDeclaration, compiled.Source.Text(), st.duplicates...)
	}

	for _, name := range slices.Sorted(maps.Keys(substitutions)) {
		if !st.used[name] {
			a.logger.Warn(fmt.Sprintf("substitution %q does not match any env() declaration", name))
		}
	}
	return st.out, nil
}

type analysis struct {
	out           *AnalyzedScript
	substitutions map[string]string
	used          map[string]bool
	declared      map[string]domain.Position
	defs          map[string]*syntax.DefStmt
	markers       map[*syntax.CallExpr]bool

	invalid    []domain.Diagnostic
	duplicates []domain.Diagnostic
}

func (st *analysis) run() {
	f := st.out.File
	st.checkGeneratedNames(f)

	for _, stmt := range f.Stmts {
		if def, ok := stmt.(*syntax.DefStmt); ok {
			st.defs[def.Name.Name] = def
		}
	}

	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.LoadStmt:
			st.checkMarkerLoad(s)
		case *syntax.ExprStmt:
			call, kind := marker(s.X)
			switch kind {
			case taskMarker:
				st.task(call, nil)
			case envMarker:
				st.markers[call] = true
				st.fail(call, "env() must be assigned to a global, as in NAME = env(\"default\")")
			}
		case *syntax.AssignStmt:
			lhs, ok := s.LHS.(*syntax.Ident)
			if !ok || s.Op != syntax.EQ {
				continue
			}
			call, kind := marker(s.RHS)
			switch kind {
			case taskMarker:
				st.task(call, lhs)
			case envMarker:
				st.variable(call, lhs)
			}
		}
	}

	syntax.Walk(f, func(n syntax.Node) bool {
		if call, ok := n.(*syntax.CallExpr); ok && !st.markers[call] {
			if _, kind := marker(call); kind != "" {
				st.fail(call, kind+"() must be called as a top-level statement")
			}
		}
		return true
	})
}

// marker reports whether e is a call of the predeclared task or env marker, directly
// or through the scribe namespace. A global that shadows a marker is not one.
func marker(e syntax.Expr) (*syntax.CallExpr, string) {
	call, ok := e.(*syntax.CallExpr)
	if !ok {
		return nil, ""
	}
	var name string
	switch fn := call.Fn.(type) {
	case *syntax.Ident:
		if !isPredeclaredIdent(fn) {
			return nil, ""
		}
		name = fn.Name
	case *syntax.DotExpr:
		x, ok := fn.X.(*syntax.Ident)
		if !ok || x.Name != SelfModule || !isPredeclaredIdent(x) {
			return nil, ""
		}
		name = fn.Name.Name
	default:
		return nil, ""
	}
	if name != taskMarker && name != envMarker {
		return nil, ""
	}
	return call, name
}

// checkMarkerLoad rejects load("scribe", "task") and the like. Markers are recognised by
// their predeclared names only, so a loaded alias would never declare anything.
func (st *analysis) checkMarkerLoad(load *syntax.LoadStmt) {
	if module, _ := load.Module.Value.(string); module != SelfModule {
		return
	}
	for _, from := range load.From {
		if from.Name == taskMarker || from.Name == envMarker {
			st.fail(from, fmt.Sprintf("%[1]s cannot be loaded from %[2]q, call %[1]s() or %[2]s.%[1]s() directly",
				from.Name, SelfModule))
		}
	}
}

func isPredeclaredIdent(id *syntax.Ident) bool {
	b, ok := id.Binding.(*resolve.Binding)
	return ok && b.Scope == resolve.Predeclared
}

func (st *analysis) checkGeneratedNames(f *syntax.File) {
	mod, ok := f.Module.(*resolve.Module)
	if !ok {
		return
	}
	for _, b := range slices.Concat(mod.Locals, mod.Globals) {
		if b == nil || b.First == nil {
			continue
		}
		if strings.HasPrefix(b.First.Name, domain.GeneratedPrefix) {
			st.fail(b.First, fmt.Sprintf("names starting with %q are reserved", domain.GeneratedPrefix))
		}
	}
}

func (st *analysis) task(call *syntax.CallExpr, assigned *syntax.Ident) {
	st.markers[call] = true

	var (
		callable syntax.Expr
		name     string
		desc     string
		deps     []string
		ok       = true
	)
	for _, arg := range call.Args {
		switch arg := arg.(type) {
		case *syntax.BinaryExpr:
			if arg.Op != syntax.EQ {
				callable, ok = st.positional(call, callable, arg)
				continue
			}
			key := arg.X.(*syntax.Ident).Name
			switch key {
			case "name":
				name, ok = st.stringArg(arg.Y, "task", key)
			case "desc":
				desc, ok = st.stringArg(arg.Y, "task", key)
			case "deps":
				deps, ok = st.stringListArg(arg.Y)
			default:
				st.fail(arg, fmt.Sprintf("task() got an unexpected keyword argument %q", key))
				ok = false
			}
		case *syntax.UnaryExpr:
			if arg.Op == syntax.STAR || arg.Op == syntax.STARSTAR {
				st.fail(arg, "task() arguments must be written out")
				return
			}
			callable, ok = st.positional(call, callable, arg)
		default:
			callable, ok = st.positional(call, callable, arg)
		}
		if !ok {
			return
		}
	}

	if callable == nil {
		st.fail(call, "task() requires the callable to run")
		return
	}
	if name == "" {
		switch {
		case assigned != nil:
			name = assigned.Name
		default:
			if id, isIdent := unparen(callable).(*syntax.Ident); isIdent {
				name = id.Name
			}
		}
	}
	if name == "" {
		st.fail(call, "task() cannot infer a name for this callable, pass name=")
		return
	}
	if name == domain.AllTasks {
		st.fail(call, fmt.Sprintf("the task name %q is reserved", domain.AllTasks))
		return
	}

	start, _ := call.Span()
	pos := toPosition(start)
	if !st.declare(name, pos) {
		return
	}

	t := &domain.Task{
		Name:         name,
		Description:  desc,
		Dependencies: deps,
		EntryPoint:   domain.TaskEntryPoint(name),
		Target:       st.out.index.text(callable),
		Pos:          pos,
	}
	t.Params, t.ParamsKnown = st.params(callable)

	st.out.Tasks = append(st.out.Tasks, t)
	st.out.taskDecls = append(st.out.taskDecls, taskDecl{task: t, call: call, callable: callable, assigned: assigned})
}

func (st *analysis) positional(call *syntax.CallExpr, prev, arg syntax.Expr) (syntax.Expr, bool) {
	if prev != nil {
		st.fail(call, "task() takes exactly one callable")
		return nil, false
	}
	return arg, true
}

func (st *analysis) variable(call *syntax.CallExpr, assigned *syntax.Ident) {
	st.markers[call] = true

	var (
		def, help  string
		positional int
		ok         = true
	)
	for _, arg := range call.Args {
		bin, isKeyword := arg.(*syntax.BinaryExpr)
		if isKeyword && bin.Op == syntax.EQ {
			key := bin.X.(*syntax.Ident).Name
			switch key {
			case "default":
				def, ok = st.stringArg(bin.Y, "env", key)
			case "help":
				help, ok = st.stringArg(bin.Y, "env", key)
			default:
				st.fail(arg, fmt.Sprintf("env() got an unexpected keyword argument %q", key))
				ok = false
			}
		} else {
			positional++
			if positional > 1 {
				st.fail(arg, "env() takes at most one default value")
				return
			}
			def, ok = st.stringArg(arg, "env", "default")
		}
		if !ok {
			return
		}
	}

	pos := toPosition(assigned.NamePos)
	if !st.declare(assigned.Name, pos) {
		return
	}

	v := domain.EnvironmentVariable{
		Name:    assigned.Name,
		Value:   def,
		Default: def,
		Help:    help,
		Binding: domain.VariableBinding(assigned.Name),
		Pos:     pos,
	}
	if sub, found := st.substitutions[assigned.Name]; found {
		st.used[assigned.Name] = true
		if !utf8.ValidString(sub) {
			st.fail(assigned, fmt.Sprintf("substitution for %s is not valid UTF-8", assigned.Name))
			return
		}
		v.Value = sub
		v.Overridden = true
	}

	st.out.varDecls = append(st.out.varDecls, varDecl{index: len(st.out.Variables), call: call})
	st.out.Variables = append(st.out.Variables, v)
}

// declare claims a name for a task or variable. Both share one namespace.
func (st *analysis) declare(name string, pos domain.Position) bool {
	if prev, ok := st.declared[name]; ok {
		st.duplicates = append(st.duplicates, errorDiagnostic(pos,
			fmt.Sprintf("%q is already declared at %s", name, prev)))
		return false
	}
	st.declared[name] = pos
	return true
}

func (st *analysis) stringArg(e syntax.Expr, fn, key string) (string, bool) {
	if lit, ok := e.(*syntax.Literal); ok && lit.Token == syntax.STRING {
		if s, ok := lit.Value.(string); ok {
			return s, true
		}
	}
	st.fail(e, fmt.Sprintf("%s() argument %s must be a string literal", fn, key))
	return "", false
}

func (st *analysis) stringListArg(e syntax.Expr) ([]string, bool) {
	var items []syntax.Expr
	switch x := unparen(e).(type) {
	case *syntax.ListExpr:
		items = x.List
	case *syntax.TupleExpr:
		items = x.List
	default:
		st.fail(e, "task() argument deps must be a list of string literals")
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := st.stringArg(item, "task", "deps")
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// params reads the parameter list of a callable that is a top-level def or a lambda.
// It reports false when the shape cannot be known before the module is loaded.
func (st *analysis) params(callable syntax.Expr) ([]domain.Param, bool) {
	switch c := unparen(callable).(type) {
	case *syntax.Ident:
		def, ok := st.defs[c.Name]
		if !ok {
			return nil, false
		}
		return st.paramList(def.Params)
	case *syntax.LambdaExpr:
		return st.paramList(c.Params)
	default:
		return nil, false
	}
}

func (st *analysis) paramList(params []syntax.Expr) ([]domain.Param, bool) {
	out := []domain.Param{}
	keywordOnly := false
	for _, p := range params {
		switch p := p.(type) {
		case *syntax.Ident:
			kind := domain.ParamPositional
			if keywordOnly {
				kind = domain.ParamKeywordOnly
			}
			out = append(out, domain.Param{Name: p.Name, Kind: kind})
		case *syntax.BinaryExpr:
			id, ok := p.X.(*syntax.Ident)
			if !ok || p.Op != syntax.EQ {
				return nil, false
			}
			kind := domain.ParamOptional
			if keywordOnly {
				kind = domain.ParamKeywordOnly
			}
			out = append(out, domain.Param{Name: id.Name, Kind: kind, Default: st.out.index.text(p.Y)})
		case *syntax.UnaryExpr:
			if p.Op == syntax.STAR {
				keywordOnly = true
			}
			if p.X == nil {
				continue
			}
			id, ok := p.X.(*syntax.Ident)
			if !ok {
				return nil, false
			}
			kind := domain.ParamVarargs
			if p.Op == syntax.STARSTAR {
				kind = domain.ParamKwargs
			}
			out = append(out, domain.Param{Name: id.Name, Kind: kind})
		default:
			return nil, false
		}
	}
	return out, true
}

func (st *analysis) fail(n syntax.Node, msg string) {
	start, _ := n.Span()
	st.invalid = append(st.invalid, errorDiagnostic(toPosition(start), msg))
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
