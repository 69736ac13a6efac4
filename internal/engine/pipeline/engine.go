// Package pipeline turns a build script into a loaded module with bound tasks.
//
// A build runs the stages compile, analyze, rewrite, emit, load and reflect in order.
// The first failing stage aborts the build and no result is produced.
package pipeline

import (
	"context"
	"io"

	"github.com/aidarkhanov/nanoid"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Engine runs builds. It may be reused for any number of independent builds.
// Its ReferenceSet only grows and every build works on a snapshot of it.
type Engine struct {
	refs   *domain.ReferenceSet
	hasher ports.Hasher
	tracer ports.Tracer

	compiler  *Compiler
	analyzer  *Analyzer
	rewriter  *Rewriter
	emitter   *Emitter
	loader    *ModuleLoader
	reflector *Reflector
}

// NewEngine creates an Engine seeded with DefaultReferences.
func NewEngine(
	resolver ports.DependencyResolver,
	hasher ports.Hasher,
	registry ports.ModuleRegistry,
	executor ports.Executor,
	logger ports.Logger,
	tracer ports.Tracer,
) *Engine {
	return &Engine{
		refs:      DefaultReferences(),
		hasher:    hasher,
		tracer:    tracer,
		compiler:  NewCompiler(resolver, hasher),
		analyzer:  NewAnalyzer(logger),
		rewriter:  NewRewriter(),
		emitter:   NewEmitter(),
		loader:    NewModuleLoader(registry, executor, logger),
		reflector: NewReflector(),
	}
}

// SetOutput sets where commands run by scripts write their output.
func (e *Engine) SetOutput(stdout, stderr io.Writer) {
	e.loader.SetOutput(stdout, stderr)
}

// AddReference adds ref to every subsequent build. It reports whether the set changed.
func (e *Engine) AddReference(ref domain.AssemblyReference) bool {
	return e.refs.Add(ref)
}

// AddReferenceFile adds the module file at path to every subsequent build.
func (e *Engine) AddReferenceFile(path string) (domain.AssemblyReference, error) {
	digest, err := e.hasher.HashFile(path)
	if err != nil {
		return domain.AssemblyReference{}, zerr.With(zerr.Wrap(err, domain.ErrReferenceHashFailed.Error()), "path", path)
	}
	ref, err := domain.NewFileReference(path, digest)
	if err != nil {
		return domain.AssemblyReference{}, zerr.With(zerr.Wrap(err, domain.ErrReferenceHashFailed.Error()), "path", path)
	}
	e.refs.Add(ref)
	return ref, nil
}

// AddNamespace predeclares the reference called name in every subsequent build script.
func (e *Engine) AddNamespace(name string) bool {
	return e.refs.AddNamespace(name)
}

// References returns the engine's references.
func (e *Engine) References() []domain.AssemblyReference {
	return e.refs.References()
}

// Build runs the pipeline for one input.
func (e *Engine) Build(ctx context.Context, in *domain.BuildInput) (*domain.BuildResult, error) {
	ctx, span := e.tracer.Start(ctx, "build", ports.WithAttribute("script", in.Source.Filename()))
	defer span.End()

	result, err := e.build(ctx, in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("build.id", result.ID)
	span.SetAttribute("build.tasks", len(result.Tasks))
	return result, nil
}

func (e *Engine) build(ctx context.Context, in *domain.BuildInput) (*domain.BuildResult, error) {
	refs, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	var compiled *CompiledScript
	if err := e.stage(ctx, "compile", func(ctx context.Context) (err error) {
		compiled, err = e.compiler.Compile(ctx, in, refs)
		return err
	}); err != nil {
		return nil, err
	}

	var analyzed *AnalyzedScript
	if err := e.stage(ctx, "analyze", func(context.Context) (err error) {
		analyzed, err = e.analyzer.Analyze(compiled, in.Substitutions)
		return err
	}); err != nil {
		return nil, err
	}

	var rewritten *RewrittenScript
	if err := e.stage(ctx, "rewrite", func(context.Context) error {
		rewritten = e.rewriter.Rewrite(analyzed)
		return nil
	}); err != nil {
		return nil, err
	}

	var emitted *EmittedModule
	if err := e.stage(ctx, "emit", func(context.Context) (err error) {
		emitted, err = e.emitter.Emit(analyzed, rewritten, in.Debug)
		return err
	}); err != nil {
		return nil, err
	}

	var mod *LoadedModule
	if err := e.stage(ctx, "load", func(ctx context.Context) (err error) {
		mod, err = e.loader.Load(ctx, in, refs, emitted)
		return err
	}); err != nil {
		return nil, err
	}

	var (
		tasks []*domain.Task
		vars  []domain.EnvironmentVariable
	)
	if err := e.stage(ctx, "reflect", func(context.Context) (err error) {
		tasks, vars, err = e.reflector.Reflect(mod, analyzed, rewritten)
		return err
	}); err != nil {
		return nil, err
	}

	return &domain.BuildResult{
		ID:         nanoid.New(),
		Tasks:      tasks,
		References: refs.References(),
		Variables:  vars,
		Assembly:   emitted.Assembly,
		Symbols:    emitted.Symbols,
		Module:     mod,
	}, nil
}

// snapshot clones the engine's references for one build, re-hashing file references so that
// modules changed on disk are not served from the loader cache.
func (e *Engine) snapshot() (*domain.ReferenceSet, error) {
	set := e.refs.Clone()
	for _, ref := range set.References() {
		if ref.Kind == domain.ReferenceBuiltin {
			continue
		}
		digest, err := e.hasher.HashFile(ref.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrReferenceHashFailed.Error()), "path", ref.Path)
		}
		set.SetDigest(ref.Identity(), digest)
	}
	return set, nil
}

func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
