// Package app implements the application layer for scribe.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/scribe/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	engine       *pipeline.Engine
	store        ports.ArtifactStore
	watcher      ports.Watcher
	logger       ports.Logger

	dir    string
	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance working in the current directory.
func New(
	loader ports.ConfigLoader,
	engine *pipeline.Engine,
	store ports.ArtifactStore,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		engine:       engine,
		store:        store,
		watcher:      watcher,
		logger:       log,
		dir:          ".",
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithDir sets the directory the project is looked up from.
func (a *App) WithDir(dir string) *App {
	a.dir = dir
	return a
}

// WithOutput sets where task output and progress are written.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	if a.engine != nil {
		a.engine.SetOutput(stdout, stderr)
	}
	return a
}

// BuildOptions configure how the build script is turned into a module.
type BuildOptions struct {
	// Script overrides the configured build script. Relative paths are resolved against the working directory.
	Script string
	// Substitutions override the configured ones.
	Substitutions map[string]string
	// Debug requests debug symbols. The configured value is used when false.
	Debug bool
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	BuildOptions
	// Parallelism caps the number of tasks running at once. Zero means one per CPU.
	Parallelism int
}

// Run builds the script and executes the targets with everything they depend on.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	_, result, err := a.build(ctx, opts.BuildOptions)
	if err != nil {
		return err
	}

	exec := a.newExecution()
	defer exec.close(ctx)

	return exec.run(ctx, result, targetNames, opts.Parallelism)
}

// Clean removes the artifact store of the project.
func (a *App) Clean(_ context.Context) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}

	path := filepath.Join(project.Root, domain.DefaultStorePath())
	a.logger.Info("removing artifact store...")
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove artifact store"), "path", path)
	}
	a.logger.Info(fmt.Sprintf("removed %s", path))
	return nil
}

func (a *App) loadProject() (*domain.Project, error) {
	cwd, err := filepath.Abs(a.dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}
	project, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

// build loads the project, registers its references and runs the pipeline on its script.
func (a *App) build(ctx context.Context, opts BuildOptions) (*domain.Project, *domain.BuildResult, error) {
	project, err := a.loadProject()
	if err != nil {
		return nil, nil, err
	}

	for _, path := range project.References {
		if _, err := a.engine.AddReferenceFile(path); err != nil {
			return nil, nil, err
		}
	}
	for _, ns := range project.Namespaces {
		a.engine.AddNamespace(ns)
	}

	script := project.Script
	if opts.Script != "" {
		script = opts.Script
		if !filepath.IsAbs(script) {
			if script, err = filepath.Abs(filepath.Join(a.dir, script)); err != nil {
				return nil, nil, zerr.With(zerr.Wrap(err, domain.ErrSourceReadFailed.Error()), "path", opts.Script)
			}
		}
		project.Script = script
	}
	if _, err := os.Stat(script); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, zerr.With(domain.ErrScriptNotFound, "path", script)
	}
	src, err := domain.NewFileSource(script)
	if err != nil {
		return nil, nil, err
	}

	substitutions := maps.Clone(project.Substitutions)
	if substitutions == nil {
		substitutions = map[string]string{}
	}
	maps.Copy(substitutions, opts.Substitutions)

	in := domain.NewBuildInput(src, substitutions, project.Debug || opts.Debug)
	if project.Root != "" {
		in.Root = project.Root
	}
	if project.Target != "" {
		in.Target = project.Target
	}

	result, err := a.engine.Build(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return project, result, nil
}
