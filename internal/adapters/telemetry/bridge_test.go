package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/scribe/internal/adapters/telemetry"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/scribe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_ReportsTaskSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	shutdown := telemetry.Setup(telemetry.NewBridge(renderer))
	tracer := telemetry.NewOTelTracer("test")

	gomock.InOrder(
		renderer.EXPECT().OnTaskStart(gomock.Any(), "", "build", gomock.Any()),
		renderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), gomock.Nil()),
	)
	renderer.EXPECT().Flush().Return(nil).AnyTimes()

	_, span := tracer.Start(context.Background(), "build", ports.WithAttribute(telemetry.TaskAttribute, "build"))
	span.End()

	_ = shutdown(context.Background())
}

func TestBridge_ReportsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	renderer.EXPECT().OnTaskStart(gomock.Any(), "", "test", gomock.Any())
	renderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), gomock.Not(gomock.Nil())).
		Do(func(_ string, _ time.Time, err error) {
			assert.EqualError(t, err, "exit status 1")
		})
	renderer.EXPECT().Flush().Return(nil).AnyTimes()

	_, span := tp.Tracer("test").Start(context.Background(), "test",
		trace.WithAttributes(attribute.String(telemetry.TaskAttribute, "test")))
	span.SetStatus(codes.Error, "exit status 1")
	span.End()
}

func TestBridge_IgnoresOtherSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	renderer.EXPECT().Flush().Return(nil).AnyTimes()

	_, span := tp.Tracer("test").Start(context.Background(), "compile")
	span.End()
}

func TestBridge_ParentID(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, root := tp.Tracer("test").Start(context.Background(), "run")
	parentID := root.SpanContext().SpanID().String()

	renderer.EXPECT().OnTaskStart(gomock.Any(), parentID, "lint", gomock.Any())
	renderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), gomock.Nil())
	renderer.EXPECT().Flush().Return(nil).AnyTimes()

	_, child := tp.Tracer("test").Start(ctx, "lint",
		trace.WithAttributes(attribute.String(telemetry.TaskAttribute, "lint")))
	child.End()
	root.End()
}
