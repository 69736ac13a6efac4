package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/scribe/internal/core/ports"
)

// TaskAttribute marks the spans of task executions. Only those reach the renderer.
const TaskAttribute = ports.TaskAttribute

// Bridge is an sdktrace.SpanProcessor that reports task spans to a renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart reports the start of a task span.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	name, ok := taskName(s)
	if !ok || !s.SpanContext().IsValid() {
		return
	}

	var parentID string
	if p := trace.SpanFromContext(parent); p.SpanContext().IsValid() {
		parentID = p.SpanContext().SpanID().String()
	}
	b.renderer.OnTaskStart(s.SpanContext().SpanID().String(), parentID, name, s.StartTime())
}

// OnEnd reports the completion of a task span.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if _, ok := taskName(s); !ok || !s.SpanContext().IsValid() {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "task failed"
		}
		err = errors.New(desc)
	}
	b.renderer.OnTaskComplete(s.SpanContext().SpanID().String(), s.EndTime(), err)
}

// ForceFlush flushes the renderer.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return b.renderer.Flush()
}

// Shutdown flushes the renderer.
func (b *Bridge) Shutdown(_ context.Context) error {
	return b.renderer.Flush()
}

func taskName(s sdktrace.ReadOnlySpan) (string, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == TaskAttribute {
			return kv.Value.AsString(), true
		}
	}
	return "", false
}
