package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	localContext = "scribe.context"
	localSession = "scribe.session"
	localDir     = "scribe.dir"
	localChain   = "scribe.chain"
	localStdout  = "scribe.stdout"
	localStderr  = "scribe.stderr"
)

// ModuleLoader loads emitted modules into the running process.
// Dependency modules are cached by identity and digest for the lifetime of the loader.
type ModuleLoader struct {
	registry ports.ModuleRegistry
	executor ports.Executor
	logger   ports.Logger

	mu     sync.Mutex
	cache  map[string]starlark.StringDict
	stdout io.Writer
	stderr io.Writer
}

// NewModuleLoader creates a ModuleLoader that registers references with registry.
func NewModuleLoader(registry ports.ModuleRegistry, executor ports.Executor, logger ports.Logger) *ModuleLoader {
	return &ModuleLoader{
		registry: registry,
		executor: executor,
		logger:   logger,
		cache:    make(map[string]starlark.StringDict),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// SetOutput sets where sh() writes the output of commands.
func (l *ModuleLoader) SetOutput(stdout, stderr io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = stdout
	l.stderr = stderr
}

// LoadedModule is an initialized module. Its globals are frozen.
type LoadedModule struct {
	name     string
	filename string
	globals  starlark.StringDict
	session  *session
	symbols  *domain.SymbolTable
}

var _ domain.Module = (*LoadedModule)(nil)

// Name returns the module name.
func (m *LoadedModule) Name() string { return m.name }

// Globals returns the sorted names of the module's globals.
func (m *LoadedModule) Globals() []string { return m.globals.Keys() }

// Lookup returns the value of a global.
func (m *LoadedModule) Lookup(name string) (starlark.Value, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// Symbols returns the decoded debug symbols, or nil when the module was emitted without them.
func (m *LoadedModule) Symbols() *domain.SymbolTable { return m.symbols }

// Load registers every reference, then initializes the emitted module.
func (l *ModuleLoader) Load(
	ctx context.Context,
	in *domain.BuildInput,
	refs *domain.ReferenceSet,
	emitted *EmittedModule,
) (*LoadedModule, error) {
	for _, ref := range refs.References() {
		if err := l.registry.Register(ref); err != nil {
			return nil, zerr.Wrap(err, domain.ErrModuleLoadFailed.Error())
		}
	}

	name := domain.ModuleStem(in.Source.Filename())
	mod := &LoadedModule{name: name, filename: in.Source.Filename()}

	if emitted.Symbols != nil {
		table, err := DecodeSymbols(emitted.Symbols)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrModuleLoadFailed.Error())
		}
		mod.symbols = table
	}

	prog, err := starlark.CompiledProgram(bytes.NewReader(emitted.Assembly))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", name)
	}

	l.mu.Lock()
	s := &session{
		loader:   l,
		locator:  locator{refs: refs, registry: l.registry, root: in.Root, target: in.Target},
		executor: l.executor,
		logger:   l.logger,
		stdout:   l.stdout,
		stderr:   l.stderr,
		root:     in.Root,
		dir:      in.Source.Dir(),
	}
	l.mu.Unlock()
	mod.session = s

	var chain []string
	if in.Source.FileBacked() {
		if id, err := domain.CanonicalPath(in.Source.Filename()); err == nil {
			chain = []string{id}
		}
	}
	thread := s.thread(ctx, name, s.dir, chain)

	predeclared, err := s.predeclared(thread)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", name)
	}

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return nil, loadError(err, name)
	}
	globals.Freeze()
	mod.globals = globals
	return mod, nil
}

// module returns the globals of a file reference, initializing it on first use.
func (l *ModuleLoader) module(thread *starlark.Thread, s *session, ref domain.AssemblyReference) (starlark.StringDict, error) {
	chain, _ := thread.Local(localChain).([]string)
	id := ref.Identity()
	if slices.Contains(chain, id) {
		cycle := strings.Join(append(slices.Clone(chain), id), " -> ")
		return nil, zerr.With(domain.ErrLoadCycle, "cycle", cycle)
	}

	key := id + "@" + ref.Digest
	l.mu.Lock()
	cached, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", ref.Path)
	}

	var prog *starlark.Program
	switch ref.Kind {
	case domain.ReferenceSource:
		_, prog, err = starlark.SourceProgram(ref.Path, data, isDependencyPredeclared)
	case domain.ReferenceCompiled:
		prog, err = starlark.CompiledProgram(bytes.NewReader(data))
	default:
		err = fmt.Errorf("unsupported reference kind %s", ref.Kind)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", ref.Path)
	}

	child := s.thread(contextOf(thread), ref.Name, filepath.Dir(ref.Path), append(slices.Clone(chain), id))
	globals, err := prog.Init(child, dependencyPredeclared())
	if err != nil {
		return nil, loadError(err, ref.Path)
	}
	globals.Freeze()

	l.mu.Lock()
	l.cache[key] = globals
	l.mu.Unlock()
	return globals, nil
}

func loadError(err error, module string) error {
	wrapped := zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", module)
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		wrapped = zerr.With(wrapped, "backtrace", evalErr.Backtrace())
	}
	return wrapped
}

// session is the state shared by every thread of one build.
type session struct {
	locator

	loader   *ModuleLoader
	executor ports.Executor
	logger   ports.Logger
	stdout   io.Writer
	stderr   io.Writer
	// root is the project root; dir is the directory of the build script.
	root string
	dir  string
}

func (s *session) thread(ctx context.Context, name, dir string, chain []string) *starlark.Thread {
	t := &starlark.Thread{
		Name: name,
		Load: s.load,
		Print: func(_ *starlark.Thread, msg string) {
			s.logger.Info(msg)
		},
	}
	t.SetLocal(localContext, ctx)
	t.SetLocal(localSession, s)
	t.SetLocal(localDir, dir)
	t.SetLocal(localChain, chain)
	return t
}

func (s *session) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	fromDir, _ := thread.Local(localDir).(string)
	ref, ok := s.locate(module, fromDir)
	if !ok {
		return nil, zerr.With(domain.ErrModuleNotFound, "module", module)
	}
	if ref.Kind == domain.ReferenceBuiltin {
		b, ok := builtinModules()[ref.Name]
		if !ok {
			return nil, zerr.With(domain.ErrModuleNotFound, "module", module)
		}
		return b.dict(ref.Name), nil
	}
	return s.loader.module(thread, s, ref)
}

// predeclared builds the globals of the build script: the markers plus one value per namespace.
// A namespace naming a file reference is bound to a struct of that module's globals.
func (s *session) predeclared(thread *starlark.Thread) (starlark.StringDict, error) {
	d := starlark.StringDict{}
	for name, v := range markers() {
		d[name] = v
	}
	for _, ns := range s.refs.Namespaces() {
		ref, ok := s.refs.ByName(ns)
		if !ok {
			return nil, zerr.With(domain.ErrModuleNotFound, "namespace", ns)
		}
		if ref.Kind == domain.ReferenceBuiltin {
			b, ok := builtinModules()[ref.Name]
			if !ok {
				return nil, zerr.With(domain.ErrModuleNotFound, "namespace", ns)
			}
			d[ns] = b.value
			continue
		}
		globals, err := s.loader.module(thread, s, ref)
		if err != nil {
			return nil, err
		}
		d[ns] = &starlarkstruct.Module{Name: ns, Members: globals}
	}
	return d, nil
}

func sessionOf(thread *starlark.Thread, fn *starlark.Builtin) (*session, error) {
	s, ok := thread.Local(localSession).(*session)
	if !ok {
		return nil, fmt.Errorf("%s: not called from a build", fn.Name())
	}
	return s, nil
}

// output returns the writers commands run on thread write to.
func (s *session) output(thread *starlark.Thread) (io.Writer, io.Writer) {
	stdout, stderr := s.stdout, s.stderr
	if w, ok := thread.Local(localStdout).(io.Writer); ok {
		stdout = w
	}
	if w, ok := thread.Local(localStderr).(io.Writer); ok {
		stderr = w
	}
	return stdout, stderr
}

func contextOf(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(localContext).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// EncodeSymbols serializes a symbol table.
func EncodeSymbols(table *domain.SymbolTable) ([]byte, error) {
	return msgpack.Marshal(table)
}

// DecodeSymbols parses a symbol stream produced by EncodeSymbols.
func DecodeSymbols(data []byte) (*domain.SymbolTable, error) {
	var table domain.SymbolTable
	if err := msgpack.Unmarshal(data, &table); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSymbolsDecodeFailed.Error())
	}
	return &table, nil
}
