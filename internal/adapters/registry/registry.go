// Package registry implements the process-wide module registry loaded modules resolve against.
package registry

import (
	"sync"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ModuleRegistry = (*Registry)(nil)

// Registry is an in-memory ModuleRegistry keyed by module identity.
// Entries are never removed.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]domain.AssemblyReference
	byName map[string]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[string]domain.AssemblyReference),
		byName: make(map[string]string),
	}
}

// Register records ref under its identity.
// A reference whose digest changed replaces the previous entry.
func (r *Registry) Register(ref domain.AssemblyReference) error {
	if ref.Name == "" {
		return zerr.With(domain.ErrModuleLoadFailed, "reason", "reference without a name")
	}
	id := ref.Identity()
	if id == "" {
		return zerr.With(zerr.With(domain.ErrModuleLoadFailed, "reason", "reference without a path"), "name", ref.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[id]
	if exists && prev == ref {
		return nil
	}
	if !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = ref
	r.byName[ref.Name] = id
	return nil
}

// Lookup finds a module by identity.
func (r *Registry) Lookup(identity string) (domain.AssemblyReference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.byID[identity]
	return ref, ok
}

// Resolve finds the module most recently registered under name.
func (r *Registry) Resolve(name string) (domain.AssemblyReference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return domain.AssemblyReference{}, false
	}
	return r.byID[id], true
}

// References returns every registered module in registration order.
func (r *Registry) References() []domain.AssemblyReference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AssemblyReference, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
