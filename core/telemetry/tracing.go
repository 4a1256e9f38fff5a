package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/anoideaopen/mirror"

// TracingHandler starts the spans of chain steps.
type TracingHandler struct {
	Tracer      trace.Tracer
	Propagators propagation.TextMapPropagator
}

// NewTracingHandler uses the global tracer provider and propagator, so it
// follows whatever InstallTraceProvider installed.
func NewTracingHandler() *TracingHandler {
	return &TracingHandler{
		Tracer:      otel.Tracer(tracerName),
		Propagators: otel.GetTextMapPropagator(),
	}
}

// StartNewSpan starts a span named spanName as a child of ctx.
func (th *TracingHandler) StartNewSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	return th.Tracer.Start(ctx, spanName, opts...)
}

// Carrier serializes the span context of ctx, for handing it to another
// goroutine or process.
func (th *TracingHandler) Carrier(ctx context.Context) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	th.Propagators.Inject(ctx, carrier)

	return carrier
}

// ExtractContext restores a context serialized by Carrier.
func (th *TracingHandler) ExtractContext(carrier propagation.MapCarrier) context.Context {
	return th.Propagators.Extract(context.Background(), carrier)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
