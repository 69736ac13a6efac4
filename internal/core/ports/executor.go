// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Executor runs shell commands for the sh() builtin.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs script in dir.
	//
	// The env parameter contains extra environment variables in "KEY=VALUE" format,
	// layered over the environment of the current process.
	//
	// It returns an error if the script cannot be parsed or exits with a non-zero status.
	Execute(ctx context.Context, script, dir string, env []string, stdout, stderr io.Writer) error
}
