package pipeline

import (
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
)

// locator finds the reference a load statement names.
// Paths are matched by canonical identity, trying the platform variant first.
// Bare names are matched by reference name. The registry, when set, is consulted
// after the build's own references.
type locator struct {
	refs     *domain.ReferenceSet
	registry ports.ModuleRegistry
	root     string
	target   string
}

func (l locator) locate(module, fromDir string) (domain.AssemblyReference, bool) {
	path, isPath := domain.LoadPath(module, fromDir, l.root)
	if !isPath {
		if ref, ok := l.refs.ByName(module); ok {
			return ref, true
		}
		if l.registry != nil {
			return l.registry.Resolve(module)
		}
		return domain.AssemblyReference{}, false
	}

	for _, candidate := range []string{domain.VariantPath(path, l.target), path} {
		id, err := domain.CanonicalPath(candidate)
		if err != nil {
			continue
		}
		if ref, ok := l.refs.Lookup(id); ok {
			return ref, true
		}
		if l.registry != nil {
			if ref, ok := l.registry.Lookup(id); ok {
				return ref, true
			}
		}
	}
	return domain.AssemblyReference{}, false
}
