package domain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/core/domain"
)

func TestScriptSource_Inline(t *testing.T) {
	src := domain.NewInlineSource("", "x = 1\n")

	assert.False(t, src.FileBacked())
	assert.Equal(t, domain.InlineScriptName, src.Filename())
	assert.Empty(t, src.Dir())
	assert.Nil(t, src.Files())
}

func TestScriptSource_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.star")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), domain.FilePerm))

	src, err := domain.NewFileSource(path, filepath.Join(dir, "lib.star"))
	require.NoError(t, err)

	assert.True(t, src.FileBacked())
	assert.Equal(t, "x = 1\n", src.Text())
	assert.Equal(t, []string{path, filepath.Join(dir, "lib.star")}, src.Files())
	assert.Equal(t, dir, src.Dir())
}

func TestScriptSource_FileMissing(t *testing.T) {
	_, err := domain.NewFileSource(filepath.Join(t.TempDir(), "missing.star"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrSourceReadFailed.Error())
}

func TestBuildInput_AttachDependencies(t *testing.T) {
	subs := map[string]string{"Version": "2.0"}
	in := domain.NewBuildInput(domain.NewInlineSource("", ""), subs, false)
	subs["Version"] = "3.0"

	_, ok := in.Dependencies()
	assert.False(t, ok)
	assert.Equal(t, "2.0", in.Substitutions["Version"])

	in.AttachDependencies([]string{})
	deps, ok := in.Dependencies()
	assert.True(t, ok)
	assert.Empty(t, deps)
}
