package domain

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ReferenceKind tells how a referenced module is obtained.
type ReferenceKind uint8

const (
	// ReferenceBuiltin is a module provided by the engine itself.
	ReferenceBuiltin ReferenceKind = iota
	// ReferenceSource is a Starlark source file compiled on load.
	ReferenceSource
	// ReferenceCompiled is a module previously emitted by scribe.
	ReferenceCompiled
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceBuiltin:
		return "builtin"
	case ReferenceSource:
		return "source"
	case ReferenceCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

const (
	// SourceExt is the extension of build script modules.
	SourceExt = ".star"
	// CompiledExt is the extension of emitted modules.
	CompiledExt = ".starc"
	// SymbolsExt is the extension of debug symbol streams.
	SymbolsExt = ".starsym"

	builtinIdentityPrefix = "builtin:"
	builtinDigest         = "builtin"
)

// AssemblyReference identifies one module a script may load.
// Two references are the same module when their identities are equal,
// no matter how the path was spelled when they were created.
type AssemblyReference struct {
	Name   string        `json:"name"`
	Path   string        `json:"path,omitempty"`
	Digest string        `json:"digest"`
	Kind   ReferenceKind `json:"kind"`
}

// NewBuiltinReference creates a reference to an engine provided module.
func NewBuiltinReference(name string) AssemblyReference {
	return AssemblyReference{Name: name, Digest: builtinDigest, Kind: ReferenceBuiltin}
}

// NewFileReference creates a reference to a module file.
// The path is canonicalized: made absolute, cleaned and stripped of symlinks when it exists.
func NewFileReference(path, digest string) (AssemblyReference, error) {
	canonical, err := CanonicalPath(path)
	if err != nil {
		return AssemblyReference{}, err
	}
	kind := ReferenceSource
	if filepath.Ext(canonical) == CompiledExt {
		kind = ReferenceCompiled
	}
	return AssemblyReference{
		Name:   ModuleStem(canonical),
		Path:   canonical,
		Digest: digest,
		Kind:   kind,
	}, nil
}

// Identity returns the key references are deduplicated by.
func (r AssemblyReference) Identity() string {
	if r.Kind == ReferenceBuiltin {
		return builtinIdentityPrefix + r.Name
	}
	return r.Path
}

// CanonicalPath returns the absolute, cleaned path with symlinks evaluated.
// Paths that do not exist are returned absolute and cleaned.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}

// ModuleStem returns the module name a file is loadable under: its base name without extension.
func ModuleStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReferenceSet is an ordered collection of references, unique by identity,
// plus the set of namespaces predeclared in every compiled script.
// It only grows. It is safe for concurrent use.
type ReferenceSet struct {
	mu         sync.RWMutex
	refs       []AssemblyReference
	index      map[string]int
	namespaces []string
	nsIndex    map[string]struct{}
}

// NewReferenceSet creates an empty ReferenceSet.
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{
		index:   make(map[string]int),
		nsIndex: make(map[string]struct{}),
	}
}

// Add inserts ref unless a reference with the same identity is already present.
// It reports whether the set changed.
func (s *ReferenceSet) Add(ref AssemblyReference) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ref.Identity()
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.refs)
	s.refs = append(s.refs, ref)
	return true
}

// AddNamespace inserts a namespace name. It reports whether the set changed.
func (s *ReferenceSet) AddNamespace(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nsIndex[name]; ok {
		return false
	}
	s.nsIndex[name] = struct{}{}
	s.namespaces = append(s.namespaces, name)
	return true
}

// Len returns the number of references.
func (s *ReferenceSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}

// References returns the references in insertion order.
func (s *ReferenceSet) References() []AssemblyReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.refs)
}

// Namespaces returns the namespaces in insertion order.
func (s *ReferenceSet) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.namespaces)
}

// HasNamespace reports whether name is a namespace of the set.
func (s *ReferenceSet) HasNamespace(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nsIndex[name]
	return ok
}

// Lookup finds a reference by identity.
func (s *ReferenceSet) Lookup(identity string) (AssemblyReference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[identity]
	if !ok {
		return AssemblyReference{}, false
	}
	return s.refs[i], true
}

// ByName finds the reference loadable under a bare module name.
// When several files share a stem the first one added wins.
func (s *ReferenceSet) ByName(name string) (AssemblyReference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ref := range s.refs {
		if ref.Name == name {
			return ref, true
		}
	}
	return AssemblyReference{}, false
}

// Clone returns an independent copy of the set.
func (s *ReferenceSet) Clone() *ReferenceSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewReferenceSet()
	for _, ref := range s.refs {
		c.index[ref.Identity()] = len(c.refs)
		c.refs = append(c.refs, ref)
	}
	for _, ns := range s.namespaces {
		c.nsIndex[ns] = struct{}{}
		c.namespaces = append(c.namespaces, ns)
	}
	return c
}

// SetDigest replaces the digest of the reference with the given identity.
// It reports whether such a reference exists.
func (s *ReferenceSet) SetDigest(identity, digest string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[identity]
	if !ok {
		return false
	}
	s.refs[i].Digest = digest
	return true
}

// LoadPath maps the module string of a load statement to a file path.
// "//x" is relative to root, absolute paths are kept and anything containing a slash
// or ending in a module extension is relative to fromDir.
// Bare names such as "json" are not paths and report false.
func LoadPath(module, fromDir, root string) (string, bool) {
	switch {
	case strings.HasPrefix(module, "//"):
		return filepath.Join(root, filepath.FromSlash(module[2:])), true
	case filepath.IsAbs(module):
		return filepath.Clean(module), true
	case strings.Contains(module, "/"), IsModuleFile(module):
		return filepath.Join(fromDir, filepath.FromSlash(module)), true
	default:
		return "", false
	}
}

// IsModuleFile reports whether path has a loadable module extension.
func IsModuleFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == SourceExt || ext == CompiledExt
}

// VariantPath returns the platform variant of a module path: lib.star becomes lib_<target>.star.
func VariantPath(path, target string) string {
	if target == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + target + ext
}
