package ports

import "go.trai.ch/scribe/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the project configuration by walking up from cwd.
	// Without a config file the project is rooted at cwd with default settings.
	Load(cwd string) (*domain.Project, error)
}
