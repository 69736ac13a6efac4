// Package cas implements the content addressable artifact store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

const manifestExt = ".json"

// Store implements ports.ArtifactStore with one manifest and one module file per artifact.
// Artifacts are keyed by the digest of their module bytes.
type Store struct {
	hasher ports.Hasher
}

// NewStore creates a new Store that keys artifacts with the given hasher.
func NewStore(hasher ports.Hasher) *Store {
	return &Store{hasher: hasher}
}

// Dir returns the directory artifacts of the project at root are stored in.
func Dir(root string) string {
	return filepath.Join(root, domain.DefaultStorePath())
}

// Put stores the artifact below root and returns its key.
func (s *Store) Put(root string, artifact *domain.Artifact) (string, error) {
	key := s.hasher.HashBytes(artifact.Module)
	artifact.Key = key

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	dir := Dir(root)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", dir)
	}

	if err := write(filepath.Join(dir, key+domain.CompiledExt), artifact.Module); err != nil {
		return "", err
	}
	if len(artifact.Symbols) > 0 {
		if err := write(filepath.Join(dir, key+domain.SymbolsExt), artifact.Symbols); err != nil {
			return "", err
		}
	}
	// The manifest goes last so a readable manifest implies a complete artifact.
	if err := write(filepath.Join(dir, key+manifestExt), data); err != nil {
		return "", err
	}

	return key, nil
}

// Get retrieves the artifact stored under key below root.
func (s *Store) Get(root, key string) (*domain.Artifact, error) {
	dir := Dir(root)

	data, err := read(filepath.Join(dir, key+manifestExt))
	if err != nil || data == nil {
		return nil, err
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "key", key)
	}

	artifact.Module, err = read(filepath.Join(dir, key+domain.CompiledExt))
	if err != nil {
		return nil, err
	}
	if artifact.Module == nil {
		return nil, zerr.With(domain.ErrStoreReadFailed, "file", filepath.Join(dir, key+domain.CompiledExt))
	}

	artifact.Symbols, err = read(filepath.Join(dir, key+domain.SymbolsExt))
	if err != nil {
		return nil, err
	}

	return &artifact, nil
}

func write(path string, data []byte) error {
	//nolint:gosec // Path is constructed from the store directory and a digest
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "file", path)
	}
	return nil
}

// read returns nil, nil when the file does not exist.
func read(path string) ([]byte, error) {
	//nolint:gosec // Path is constructed from the store directory and a digest
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "file", path)
	}
	return data, nil
}
