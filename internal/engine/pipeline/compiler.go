package pipeline

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// CompiledScript is a parsed, resolved and compiled build script.
type CompiledScript struct {
	Source     domain.ScriptSource
	File       *syntax.File
	Program    *starlark.Program
	References *domain.ReferenceSet
}

// Compiler is the front end: it resolves the script's dependencies and compiles it.
type Compiler struct {
	resolver ports.DependencyResolver
	hasher   ports.Hasher
}

// NewCompiler creates a new Compiler.
func NewCompiler(resolver ports.DependencyResolver, hasher ports.Hasher) *Compiler {
	return &Compiler{resolver: resolver, hasher: hasher}
}

// Compile compiles the script of in against refs.
// The references of the script's dependencies are added to refs.
// Every error diagnostic is collected into one ErrScriptCompilationFailed.
func (c *Compiler) Compile(ctx context.Context, in *domain.BuildInput, refs *domain.ReferenceSet) (*CompiledScript, error) {
	if err := c.addDependencies(ctx, in, refs); err != nil {
		return nil, err
	}

	src := in.Source
	f, err := syntax.Parse(src.Filename(), src.Text(), 0)
	if err != nil {
		return nil, domain.NewDiagnosticError(domain.ErrScriptCompilationFailed, src.Text(),
			compileDiagnostics(src.Filename(), err)...)
	}

	loc := locator{refs: refs, root: in.Root, target: in.Target}
	diags := checkNamespaces(refs, src.Filename())
	diags = append(diags, checkLoads(f, loc, src.Dir())...)

	prog, err := starlark.FileProgram(f, isPredeclared(refs))
	if err != nil {
		diags = append(diags, compileDiagnostics(src.Filename(), err)...)
	}

	if len(diags) > 0 {
		sortDiagnostics(diags)
		return nil, domain.NewDiagnosticError(domain.ErrScriptCompilationFailed, src.Text(), diags...)
	}

	return &CompiledScript{Source: src, File: f, Program: prog, References: refs}, nil
}

// addDependencies resolves the module files the script loads, unless the caller attached them,
// and adds them to refs. Digests are computed concurrently.
func (c *Compiler) addDependencies(ctx context.Context, in *domain.BuildInput, refs *domain.ReferenceSet) error {
	paths, attached := in.Dependencies()
	if !attached {
		if !in.Source.FileBacked() {
			return nil
		}
		resolved, err := c.resolver.Resolve(ctx, in.Root, in.Source.Files(), true, in.Target)
		if err != nil {
			return zerr.Wrap(err, domain.ErrDependencyResolutionFailed.Error())
		}
		in.AttachDependencies(resolved)
		paths = resolved
	}

	resolvedRefs := make([]domain.AssemblyReference, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			digest, err := c.hasher.HashFile(path)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrReferenceHashFailed.Error()), "path", path)
			}
			ref, err := domain.NewFileReference(path, digest)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrReferenceHashFailed.Error()), "path", path)
			}
			resolvedRefs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ref := range resolvedRefs {
		refs.Add(ref)
	}
	return nil
}

func isPredeclared(refs *domain.ReferenceSet) func(string) bool {
	return func(name string) bool {
		return name == taskMarker || name == envMarker || refs.HasNamespace(name)
	}
}

func checkNamespaces(refs *domain.ReferenceSet, filename string) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, ns := range refs.Namespaces() {
		if _, ok := refs.ByName(ns); !ok {
			diags = append(diags, errorDiagnostic(domain.Position{File: filename},
				fmt.Sprintf("namespace %q does not name a reference", ns)))
		}
	}
	return diags
}

func checkLoads(f *syntax.File, loc locator, fromDir string) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, stmt := range f.Stmts {
		load, ok := stmt.(*syntax.LoadStmt)
		if !ok {
			continue
		}
		module := load.ModuleName()
		if _, ok := loc.locate(module, fromDir); !ok {
			diags = append(diags, errorDiagnostic(toPosition(load.Module.TokenPos),
				fmt.Sprintf("cannot load %q: no reference provides it", module)))
		}
	}
	return diags
}
