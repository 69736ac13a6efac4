package ports

import "time"

// Renderer displays task progress.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlanEmit is called once the tasks to run are known, in execution order.
	OnPlanEmit(tasks []string, targets []string)

	// OnTaskStart is called when a task begins execution.
	// spanID identifies this execution, parentID is empty for a root span.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a task emits output.
	// data may contain partial lines.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a task finishes. err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)

	// Flush writes any buffered output.
	Flush() error
}
