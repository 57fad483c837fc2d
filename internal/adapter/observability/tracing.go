// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/fairyhunter13/authentyc-landing/internal/config"
)

// samplingRatio keeps every trace outside prod and a tenth in prod unless
// OTEL_TRACES_SAMPLER_ARG pins a ratio.
func samplingRatio(cfg config.Config) float64 {
	if cfg.TraceSampleRatio >= 0 && cfg.TraceSampleRatio <= 1 {
		return cfg.TraceSampleRatio
	}
	if cfg.IsProd() {
		return 0.1
	}
	return 1.0
}

func newResource(ctx context.Context, cfg config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.OTELServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.AppEnv),
		),
		resource.WithProcessRuntimeName(),
		resource.WithHost(),
	)
}

// SetupTracing installs the W3C propagators and, when an OTLP endpoint is set,
// a batching tracer provider. The returned shutdown func is nil when tracing is off.
func SetupTracing(cfg config.Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if cfg.OTLPEndpoint == "" {
		slog.Info("OTLP endpoint not set; tracing disabled")
		return nil, nil
	}

	ctx := context.Background()
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("op=observability.SetupTracing: %w", err)
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=observability.SetupTracing: %w", err)
	}

	ratio := samplingRatio(cfg)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing configured",
		slog.String("endpoint", cfg.OTLPEndpoint),
		slog.String("service", cfg.OTELServiceName),
		slog.Float64("sampling_ratio", ratio))
	return tp.Shutdown, nil
}
