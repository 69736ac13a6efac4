package ports

import "context"

// DependencyResolver finds the module files a script needs.
//
//go:generate go run go.uber.org/mock/mockgen -source=dependency_resolver.go -destination=mocks/mock_dependency_resolver.go -package=mocks
type DependencyResolver interface {
	// Resolve returns the absolute paths of the modules loaded by files.
	// Relative loads are resolved against the loading file, "//" loads against rootDir.
	// With includeTransitive the loads of the returned modules are followed too.
	// The target selects platform variants (name_<target>.star) when they exist.
	Resolve(ctx context.Context, rootDir string, files []string, includeTransitive bool, target string) ([]string, error)
}
