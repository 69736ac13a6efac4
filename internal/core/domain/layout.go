package domain

import "path/filepath"

const (
	// ScribeDirName is the name of the internal workspace directory.
	ScribeDirName = ".scribe"

	// StoreDirName is the name of the artifact store directory.
	StoreDirName = "store"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "scribe.yaml"

	// DefaultScriptName is the build script used when the config does not name one.
	DefaultScriptName = "build.star"

	// AllTasks is the reserved target selecting every task.
	AllTasks = "all"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStorePath returns the default path for the artifact store.
// It joins .scribe and store.
func DefaultStorePath() string {
	return filepath.Join(ScribeDirName, StoreDirName)
}

// IsWatched reports whether a change to path can affect a build.
func IsWatched(path string) bool {
	switch filepath.Ext(path) {
	case SourceExt, CompiledExt:
		return true
	}
	return filepath.Base(path) == ConfigFileName
}
