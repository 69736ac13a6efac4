package domain_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/core/domain"
)

func TestReferenceSet_AddIsIdempotent(t *testing.T) {
	set := domain.NewReferenceSet()
	for _, name := range []string{"json", "math", "time"} {
		set.Add(domain.NewBuiltinReference(name))
	}
	n := set.Len()

	ref := domain.NewBuiltinReference("struct")
	assert.True(t, set.Add(ref))
	assert.False(t, set.Add(ref))
	assert.Equal(t, n+1, set.Len())
}

func TestReferenceSet_IdentityIgnoresSpelling(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.star")
	require.NoError(t, os.WriteFile(lib, []byte("x = 1\n"), domain.FilePerm))
	link := filepath.Join(dir, "alias.star")
	require.NoError(t, os.Symlink(lib, link))

	direct, err := domain.NewFileReference(lib, "d1")
	require.NoError(t, err)
	dotted, err := domain.NewFileReference(filepath.Join(dir, ".", "sub", "..", "lib.star"), "d1")
	require.NoError(t, err)
	linked, err := domain.NewFileReference(link, "d1")
	require.NoError(t, err)

	set := domain.NewReferenceSet()
	assert.True(t, set.Add(direct))
	assert.False(t, set.Add(dotted))
	assert.False(t, set.Add(linked))
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, "lib", direct.Name)
	assert.Equal(t, domain.ReferenceSource, direct.Kind)
}

func TestReferenceSet_Namespaces(t *testing.T) {
	set := domain.NewReferenceSet()
	assert.True(t, set.AddNamespace("json"))
	assert.False(t, set.AddNamespace("json"))
	assert.True(t, set.AddNamespace("semver"))

	assert.Equal(t, []string{"json", "semver"}, set.Namespaces())
	assert.True(t, set.HasNamespace("semver"))
	assert.False(t, set.HasNamespace("yaml"))
}

func TestReferenceSet_CloneIsIndependent(t *testing.T) {
	set := domain.NewReferenceSet()
	set.Add(domain.NewBuiltinReference("json"))
	set.AddNamespace("json")

	clone := set.Clone()
	clone.Add(domain.NewBuiltinReference("math"))
	clone.AddNamespace("math")

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, clone.Len())
	assert.False(t, set.HasNamespace("math"))

	ref, ok := clone.ByName("json")
	require.True(t, ok)
	assert.Equal(t, "builtin:json", ref.Identity())
}

func TestReferenceSet_SetDigest(t *testing.T) {
	set := domain.NewReferenceSet()
	set.Add(domain.AssemblyReference{Kind: domain.ReferenceSource, Name: "lib", Path: "/src/lib.star", Digest: "old"})

	clone := set.Clone()
	assert.True(t, clone.SetDigest("/src/lib.star", "new"))
	assert.False(t, clone.SetDigest("/src/missing.star", "new"))

	ref, ok := clone.Lookup("/src/lib.star")
	require.True(t, ok)
	assert.Equal(t, "new", ref.Digest)

	orig, ok := set.Lookup("/src/lib.star")
	require.True(t, ok)
	assert.Equal(t, "old", orig.Digest)
}

func TestReferenceSet_ConcurrentAdd(t *testing.T) {
	set := domain.NewReferenceSet()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set.Add(domain.NewBuiltinReference("json"))
			set.AddNamespace("json")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, set.Len())
	assert.Len(t, set.Namespaces(), 1)
}

func TestNewFileReference_Kind(t *testing.T) {
	ref, err := domain.NewFileReference(filepath.Join(t.TempDir(), "tools.starc"), "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.ReferenceCompiled, ref.Kind)
	assert.Equal(t, "tools", ref.Name)
	assert.Equal(t, ref.Path, ref.Identity())
}

func TestLoadPath(t *testing.T) {
	root := filepath.FromSlash("/work")
	from := filepath.FromSlash("/work/ci")

	tests := []struct {
		module string
		want   string
		isPath bool
	}{
		{module: "//tools/semver.star", want: filepath.FromSlash("/work/tools/semver.star"), isPath: true},
		{module: "lib.star", want: filepath.FromSlash("/work/ci/lib.star"), isPath: true},
		{module: "../shared/lib.star", want: filepath.FromSlash("/work/shared/lib.star"), isPath: true},
		{module: "gen/out.starc", want: filepath.FromSlash("/work/ci/gen/out.starc"), isPath: true},
		{module: "json", isPath: false},
		{module: "semver", isPath: false},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			got, ok := domain.LoadPath(tt.module, from, root)
			assert.Equal(t, tt.isPath, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantPath(t *testing.T) {
	assert.Equal(t, "/a/lib_linux.star", domain.VariantPath("/a/lib.star", "linux"))
	assert.Equal(t, "/a/lib.star", domain.VariantPath("/a/lib.star", ""))
}
