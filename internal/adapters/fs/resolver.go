package fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DependencyResolver = (*Resolver)(nil)

// Resolver finds module files by reading the load statements of scripts.
// Files that do not parse or loads that name no existing file are skipped;
// the compiler reports them with their position.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the canonical paths of the modules loaded by files, in discovery order.
// The input files themselves are never part of the result.
func (r *Resolver) Resolve(
	ctx context.Context,
	rootDir string,
	files []string,
	includeTransitive bool,
	target string,
) ([]string, error) {
	seen := make(map[string]bool, len(files))
	queue := make([]string, 0, len(files))
	for _, file := range files {
		canonical, err := domain.CanonicalPath(file)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDependencyResolutionFailed.Error()), "path", file)
		}
		if _, err := os.Stat(canonical); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDependencyResolutionFailed.Error()), "path", file)
		}
		seen[canonical] = true
		queue = append(queue, canonical)
	}

	var out []string
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := queue[0]
		queue = queue[1:]

		for _, module := range loadsOf(file) {
			path, ok := domain.LoadPath(module, filepath.Dir(file), rootDir)
			if !ok {
				continue
			}
			path = pickVariant(path, target)
			if path == "" {
				continue
			}
			canonical, err := domain.CanonicalPath(path)
			if err != nil || seen[canonical] {
				continue
			}
			seen[canonical] = true
			out = append(out, canonical)
			if includeTransitive {
				queue = append(queue, canonical)
			}
		}
	}

	return out, nil
}

// pickVariant prefers the platform variant of path, then path itself.
// It returns "" when neither exists.
func pickVariant(path, target string) string {
	for _, candidate := range []string{domain.VariantPath(path, target), path} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// loadsOf returns the module strings of the load statements of a source or compiled module.
func loadsOf(path string) []string {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a load statement of the project
	if err != nil {
		return nil
	}

	if filepath.Ext(path) == domain.CompiledExt {
		prog, err := starlark.CompiledProgram(bytes.NewReader(data))
		if err != nil {
			return nil
		}
		modules := make([]string, 0, prog.NumLoads())
		for i := range prog.NumLoads() {
			module, _ := prog.Load(i)
			modules = append(modules, module)
		}
		return modules
	}

	f, err := syntax.Parse(path, data, 0)
	if err != nil {
		return nil
	}
	var modules []string
	for _, stmt := range f.Stmts {
		if load, ok := stmt.(*syntax.LoadStmt); ok {
			if module, ok := load.Module.Value.(string); ok {
				modules = append(modules, module)
			}
		}
	}
	return modules
}
