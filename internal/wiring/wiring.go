// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/scribe/internal/adapters/cas"
	_ "go.trai.ch/scribe/internal/adapters/config"
	_ "go.trai.ch/scribe/internal/adapters/fs"
	_ "go.trai.ch/scribe/internal/adapters/logger"
	_ "go.trai.ch/scribe/internal/adapters/registry"
	_ "go.trai.ch/scribe/internal/adapters/shell"
	_ "go.trai.ch/scribe/internal/adapters/telemetry"
	_ "go.trai.ch/scribe/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/scribe/internal/app"
	_ "go.trai.ch/scribe/internal/engine/pipeline"
)
