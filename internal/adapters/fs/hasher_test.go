package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/adapters/fs"
	"go.trai.ch/scribe/internal/core/domain"
)

func TestHasher_HashFileMatchesHashBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.star")
	content := []byte("def greet(name):\n    return 'hi ' + name\n")
	require.NoError(t, os.WriteFile(path, content, domain.PrivateFilePerm))

	h := fs.NewHasher()
	fromFile, err := h.HashFile(path)
	require.NoError(t, err)

	assert.Len(t, fromFile, 16)
	assert.Equal(t, h.HashBytes(content), fromFile)
	assert.NotEqual(t, h.HashBytes([]byte("other")), fromFile)
}

func TestHasher_HashFileMissing(t *testing.T) {
	_, err := fs.NewHasher().HashFile(filepath.Join(t.TempDir(), "missing.star"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrReferenceHashFailed.Error())
}
