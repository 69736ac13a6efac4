package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// EmitOptions configuration for the Emit method.
type EmitOptions struct {
	BuildOptions
	// OutDir additionally receives <script>.starc (and .starsym) for use as a compiled reference.
	OutDir string
}

// Emit builds the script and stores the emitted module in the artifact store.
// It returns the artifact key.
func (a *App) Emit(ctx context.Context, opts EmitOptions) (string, error) {
	project, result, err := a.build(ctx, opts.BuildOptions)
	if err != nil {
		return "", err
	}

	artifact := &domain.Artifact{
		Script:     relativeTo(project.Root, project.Script),
		Tasks:      make([]string, 0, len(result.Tasks)),
		Variables:  make(map[string]string, len(result.Variables)),
		References: result.References,
		CreatedAt:  time.Now().UTC(),
		Module:     result.Assembly,
		Symbols:    result.Symbols,
	}
	for _, t := range result.Tasks {
		artifact.Tasks = append(artifact.Tasks, t.Name)
	}
	for _, v := range result.Variables {
		artifact.Variables[v.Name] = v.Value
	}

	key, err := a.store.Put(project.Root, artifact)
	if err != nil {
		return "", err
	}
	a.logger.Info("emitted module " + key)

	if opts.OutDir != "" {
		if err := exportArtifact(opts.OutDir, result.Module.Name(), artifact); err != nil {
			return "", err
		}
	}
	return key, nil
}

func exportArtifact(dir, stem string, artifact *domain.Artifact) error {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactExportFailed.Error()), "dir", dir)
	}

	files := map[string][]byte{stem + domain.CompiledExt: artifact.Module}
	if len(artifact.Symbols) > 0 {
		files[stem+domain.SymbolsExt] = artifact.Symbols
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		//nolint:gosec // Path is the output directory the user asked for
		if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArtifactExportFailed.Error()), "file", path)
		}
	}
	return nil
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
