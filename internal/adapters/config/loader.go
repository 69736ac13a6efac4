// Package config loads the scribe.yaml project configuration.
package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/scribe/internal/build"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger  ports.Logger
	FS      FileSystem
	Version string
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a Loader reading from the OS file system and checking
// constraints against the version of this binary.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS(), Version: build.Version}
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load finds scribe.yaml in cwd or one of its parents and returns the project it describes.
// Without a config file the project is rooted at cwd and runs build.star.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, found := l.findConfiguration(cwd)
	if !found {
		return &domain.Project{
			Root:          cwd,
			Script:        filepath.Join(cwd, domain.DefaultScriptName),
			Target:        runtime.GOOS,
			Substitutions: map[string]string{},
		}, nil
	}

	var file Scribefile
	if err := l.readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if err := l.checkRequires(file.Requires); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	root := resolveRoot(configPath, file.Root)
	project := &domain.Project{
		Root:          root,
		ConfigPath:    configPath,
		Script:        resolvePath(root, orDefault(file.Script, domain.DefaultScriptName)),
		Requires:      file.Requires,
		Target:        orDefault(file.Target, runtime.GOOS),
		Substitutions: maps.Clone(file.Substitutions),
		Debug:         file.Debug,
	}
	if project.Substitutions == nil {
		project.Substitutions = map[string]string{}
	}

	refs, err := l.expandReferences(root, file.References)
	if err != nil {
		return nil, err
	}
	project.References = refs

	for _, ns := range file.Namespaces {
		if !identifierRegex.MatchString(ns) {
			return nil, zerr.With(domain.ErrInvalidNamespace, "namespace", ns)
		}
	}
	project.Namespaces = slices.Clone(file.Namespaces)

	return project, nil
}

func (l *Loader) findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

// checkRequires verifies the running version against the project's constraint.
// Development builds satisfy every constraint.
func (l *Loader) checkRequires(requires string) error {
	if requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(requires)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInvalidConstraint.Error()), "requires", requires)
	}

	version, err := semver.NewVersion(strings.TrimPrefix(l.Version, "v"))
	if err != nil {
		l.Logger.Warn(fmt.Sprintf("skipping version check: %q is not a release version", l.Version))
		return nil
	}
	if !constraint.Check(version) {
		return zerr.With(zerr.With(domain.ErrVersionMismatch, "requires", requires), "version", version.String())
	}
	return nil
}

// expandReferences resolves reference patterns relative to root.
// A pattern without glob characters must name an existing file.
func (l *Loader) expandReferences(root string, patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		abs := resolvePath(root, pattern)
		matches, err := l.FS.Glob(abs)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "reference", pattern)
		}
		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrReferenceNotFound, "reference", pattern)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *Scribefile) error {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
