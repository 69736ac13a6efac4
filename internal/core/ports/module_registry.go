package ports

import "go.trai.ch/scribe/internal/core/domain"

// ModuleRegistry is the process-wide table loaded modules resolve their loads against.
// Implementations must support concurrent idempotent registration.
//
//go:generate go run go.uber.org/mock/mockgen -source=module_registry.go -destination=mocks/mock_module_registry.go -package=mocks
type ModuleRegistry interface {
	// Register records ref. Registering the same identity again is a no-op
	// unless the digest changed, in which case the entry is replaced.
	Register(ref domain.AssemblyReference) error
	// Lookup finds a module by identity.
	Lookup(identity string) (domain.AssemblyReference, bool)
	// Resolve finds the most recently registered module with the given name.
	Resolve(name string) (domain.AssemblyReference, bool)
	// References returns every registered module in registration order.
	References() []domain.AssemblyReference
}
