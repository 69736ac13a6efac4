package config

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is what the loader needs to find scribe.yaml and expand reference patterns.
type FileSystem interface {
	// Stat reports whether a config candidate exists.
	Stat(path string) (fs.FileInfo, error)
	// ReadFile reads the config file.
	ReadFile(path string) ([]byte, error)
	// Glob expands a reference pattern.
	Glob(pattern string) ([]string, error)
}

// OSFS implements FileSystem using the standard library.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat returns file info for the given path.
func (o *OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire file at path.
func (o *OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path is the discovered config file
	return os.ReadFile(path)
}

// Glob returns the paths matching pattern, in lexical order.
func (o *OSFS) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
