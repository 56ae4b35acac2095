// Package telemetry brackets an engine.Analyze invocation with OpenTelemetry
// spans and Prometheus metrics. It never influences the core's deterministic
// output; every hook here is observe-only.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "muleguard/engine"

// TracingConfig controls whether tracing is enabled and under what service
// name spans are emitted.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// NewTracerProvider builds a TracerProvider exporting to stdout, matching
// the local/dev tracing pattern used across the retrieved pack. Returns a
// no-op provider's shutdown func when tracing is disabled.
func NewTracerProvider(cfg TracingConfig) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		noop := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(noop)
		return noop, noop.Shutdown, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(0)),
	)
	otel.SetTracerProvider(provider)
	return provider, provider.Shutdown, nil
}

// Tracer returns the package-wide tracer used to bracket engine phases.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartPhase starts a child span named for one engine phase (e.g.
// "detect.cycle", "aggregate"). Callers must call the returned end func.
func StartPhase(ctx context.Context, phase string) (context.Context, func()) {
	ctx, span := Tracer().Start(ctx, phase)
	return ctx, func() { span.End() }
}
