package ports

import "go.trai.ch/scribe/internal/core/domain"

// ArtifactStore persists emitted modules below a project root.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Put stores the artifact and returns the key it was stored under.
	Put(root string, artifact *domain.Artifact) (string, error)

	// Get retrieves the artifact stored under key.
	// Returns nil, nil if not found.
	Get(root, key string) (*domain.Artifact, error)
}
