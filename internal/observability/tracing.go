// Package observability carries the engine's ambient cross-cutting
// concerns that sit outside the C1-C7 core: OpenTelemetry tracing spans
// around runs and nodes, and a websocket broadcaster for live run feeds.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Span is the minimal span handle the flow runner needs: start it, do
// work, end it. Kept narrow so the runner doesn't import otel/trace
// directly.
type Span interface {
	End()
}

// Tracer starts spans around a run and around each node within it.
// Grounded on teacher's own OpenTelemetry integration (otel + otel/trace,
// carried as an indirect dependency of the storage layer); promoted here
// to a direct, first-class tracing concern of the flow runner.
type Tracer interface {
	StartRun(ctx context.Context, flowID, runID string) (Span, context.Context)
	StartNode(ctx context.Context, runID, nodeID string) (Span, context.Context)
}

type otelSpan struct{ span trace.Span }

func (s otelSpan) End() { s.span.End() }

// OtelTracer is a Tracer backed by a named OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer returns a Tracer using the global TracerProvider under
// the instrumentation name "flowengine".
func NewOtelTracer() OtelTracer {
	return OtelTracer{tracer: otel.Tracer("flowengine")}
}

func (t OtelTracer) StartRun(ctx context.Context, flowID, runID string) (Span, context.Context) {
	ctx, span := t.tracer.Start(ctx, "flow.run")
	return otelSpan{span}, ctx
}

func (t OtelTracer) StartNode(ctx context.Context, runID, nodeID string) (Span, context.Context) {
	ctx, span := t.tracer.Start(ctx, "flow.node")
	return otelSpan{span}, ctx
}

// NoopTracer discards all spans; the default for tests and callers that
// don't configure an OpenTelemetry exporter.
type NoopTracer struct{}

type noopSpan struct{}

func (noopSpan) End() {}

func (NoopTracer) StartRun(ctx context.Context, flowID, runID string) (Span, context.Context) {
	return noopSpan{}, ctx
}

func (NoopTracer) StartNode(ctx context.Context, runID, nodeID string) (Span, context.Context) {
	return noopSpan{}, ctx
}
