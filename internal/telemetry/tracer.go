// Package telemetry wires the OpenTelemetry trace pipeline for the
// gateway. Spans go to stdout; the exporter and sampler are tuned by
// the debug flag so production deployments don't pay for pretty-printed
// full sampling.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// sampleRatio is the fraction of traces kept when debug is off.
const sampleRatio = 0.1

// InitTracer installs the global tracer provider and returns its
// shutdown function. With debug on, spans are pretty-printed and every
// trace is sampled; otherwise output is compact and sampling follows
// the parent decision with a ratio fallback.
func InitTracer(serviceName, environment string, debug bool, logger *slog.Logger) (func(context.Context) error, error) {
	var exporterOpts []stdouttrace.Option
	if debug {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	if debug {
		sampler = sdktrace.AlwaysSample()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)

	logger.Info("tracing initialized",
		slog.String("service", serviceName),
		slog.String("environment", environment),
		slog.Bool("debug", debug),
	)

	return tp.Shutdown, nil
}
