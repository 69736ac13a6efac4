package domain

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// InlineScriptName is the filename used for scripts that are not backed by a file.
const InlineScriptName = "<inline>"

// ScriptSource is the text of one build script.
// It is immutable once constructed.
type ScriptSource struct {
	text       string
	filename   string
	includes   []string
	fileBacked bool
}

// NewInlineSource creates a source from text that did not come from disk.
// The name is only used in diagnostics; an empty name becomes InlineScriptName.
func NewInlineSource(name, text string, includes ...string) ScriptSource {
	if name == "" {
		name = InlineScriptName
	}
	return ScriptSource{text: text, filename: name, includes: slices.Clone(includes)}
}

// NewFileSource reads a script from disk.
// The filename is made absolute so that relative loads resolve against its directory.
func NewFileSource(path string, includes ...string) (ScriptSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ScriptSource{}, zerr.With(zerr.Wrap(err, ErrSourceReadFailed.Error()), "path", path)
	}
	data, err := os.ReadFile(abs) //nolint:gosec // G304: path names the build script the user asked for
	if err != nil {
		return ScriptSource{}, zerr.With(zerr.Wrap(err, ErrSourceReadFailed.Error()), "path", abs)
	}
	return ScriptSource{
		text:       string(data),
		filename:   abs,
		includes:   slices.Clone(includes),
		fileBacked: true,
	}, nil
}

// Text returns the script text.
func (s ScriptSource) Text() string { return s.text }

// Filename returns the originating file, or a display name for inline sources.
func (s ScriptSource) Filename() string { return s.filename }

// Includes returns the additional files that make up the script.
func (s ScriptSource) Includes() []string { return slices.Clone(s.includes) }

// FileBacked reports whether the source was read from a real file.
func (s ScriptSource) FileBacked() bool { return s.fileBacked }

// Files returns the root file followed by its includes.
// It is empty for inline sources.
func (s ScriptSource) Files() []string {
	if !s.fileBacked {
		return nil
	}
	return append([]string{s.filename}, s.includes...)
}

// Dir returns the directory of a file-backed source, or "" for inline sources.
func (s ScriptSource) Dir() string {
	if !s.fileBacked {
		return ""
	}
	return filepath.Dir(s.filename)
}
