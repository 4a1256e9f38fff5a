package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/mirror/core/class"
)

func TestInstallTraceProviderNoop(t *testing.T) {
	shutdown, err := InstallTraceProvider("", "mirror-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	th := NewTracingHandler()
	_, span := th.StartNewSpan(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	EndSpan(span, nil)
}

func TestCarrierRoundTrip(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	th := &TracingHandler{
		Tracer:      provider.Tracer("test"),
		Propagators: propagation.TraceContext{},
	}

	ctx, span := th.StartNewSpan(context.Background(), "step", trace.WithAttributes(MemberKind(class.KindMethod), Member("Substring")))
	defer EndSpan(span, errors.New("boom"))

	carrier := th.Carrier(ctx)
	require.NotEmpty(t, carrier.Get("traceparent"))

	restored := trace.SpanContextFromContext(th.ExtractContext(carrier))
	require.Equal(t, span.SpanContext().TraceID(), restored.TraceID())
	require.True(t, restored.IsRemote())
}
