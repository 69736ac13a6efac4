package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/adapters/config"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func newLoader(t *testing.T, version string) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	l := config.NewLoader(log)
	l.Version = version
	return l, log
}

func TestLoader_NoConfig(t *testing.T) {
	dir := t.TempDir()
	l, _ := newLoader(t, "1.0.0")

	project, err := l.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, project.Root)
	assert.Equal(t, filepath.Join(dir, "build.star"), project.Script)
	assert.Equal(t, runtime.GOOS, project.Target)
	assert.Empty(t, project.ConfigPath)
	assert.NotNil(t, project.Substitutions)
}

func TestLoader_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tools", "semver.star"), "def parse(v): return v\n")
	writeFile(t, filepath.Join(dir, "tools", "git.star"), "def sha(): return 'x'\n")
	writeFile(t, filepath.Join(dir, "scribe.yaml"), `
requires: ">= 1.0.0"
script: ci/pipeline.star
target: linux
references:
  - tools/*.star
namespaces: [semver]
substitutions:
  Version: "1.0"
debug: true
`)
	nested := filepath.Join(dir, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	l, _ := newLoader(t, "v1.2.0")
	project, err := l.Load(nested)
	require.NoError(t, err)

	assert.Equal(t, dir, project.Root)
	assert.Equal(t, filepath.Join(dir, "scribe.yaml"), project.ConfigPath)
	assert.Equal(t, filepath.Join(dir, "ci", "pipeline.star"), project.Script)
	assert.Equal(t, "linux", project.Target)
	assert.Equal(t, []string{
		filepath.Join(dir, "tools", "git.star"),
		filepath.Join(dir, "tools", "semver.star"),
	}, project.References)
	assert.Equal(t, []string{"semver"}, project.Namespaces)
	assert.Equal(t, map[string]string{"Version": "1.0"}, project.Substitutions)
	assert.True(t, project.Debug)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		version     string
		errContains string
	}{
		{
			name:        "invalid yaml",
			config:      "script: [unterminated\n",
			version:     "1.0.0",
			errContains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:        "version mismatch",
			config:      "requires: \">= 2.0.0\"\n",
			version:     "1.4.0",
			errContains: domain.ErrVersionMismatch.Error(),
		},
		{
			name:        "invalid constraint",
			config:      "requires: \"not a constraint\"\n",
			version:     "1.4.0",
			errContains: domain.ErrInvalidConstraint.Error(),
		},
		{
			name:        "missing reference",
			config:      "references: [tools/missing.star]\n",
			version:     "1.0.0",
			errContains: domain.ErrReferenceNotFound.Error(),
		},
		{
			name:        "invalid namespace",
			config:      "namespaces: [\"not-valid\"]\n",
			version:     "1.0.0",
			errContains: domain.ErrInvalidNamespace.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "scribe.yaml"), tt.config)

			l, _ := newLoader(t, tt.version)
			_, err := l.Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoader_DevVersionSkipsConstraint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scribe.yaml"), "requires: \">= 9.0.0\"\n")

	l, log := newLoader(t, "dev")
	log.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := l.Load(dir)
	require.NoError(t, err)
}
