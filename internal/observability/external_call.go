package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	obsmetrics "github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
)

// CallKind selects which metric family an ExternalCall feeds.
type CallKind string

const (
	CallKindHTTP CallKind = "http"
	CallKindAI   CallKind = "ai"
)

// ExternalCall wraps calls to one upstream service with a span and
// Prometheus metrics.
type ExternalCall struct {
	Kind    CallKind
	Service string
	Timeout time.Duration

	tracer trace.Tracer
}

// NewExternalCall returns a wrapper for service. timeout <= 0 disables the
// per-call deadline.
func NewExternalCall(kind CallKind, service string, timeout time.Duration) *ExternalCall {
	return &ExternalCall{Kind: kind, Service: service, Timeout: timeout, tracer: otel.Tracer("external." + service)}
}

// Do runs fn under a span named "<service>.<operation>".
func (c *ExternalCall) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	spanCtx, span := c.tracer.Start(ctx, c.Service+"."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("external.kind", string(c.Kind)),
		attribute.String("external.service", c.Service),
		attribute.String("operation.name", operation),
	)

	callCtx := spanCtx
	cancel := func() {}
	if c.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(spanCtx, c.Timeout)
		span.SetAttributes(attribute.Float64("timeout.seconds", c.Timeout.Seconds()))
	}
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	dur := time.Since(start)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		span.SetAttributes(attribute.Bool("timeout", true))
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Float64("duration.seconds", dur.Seconds()))

	if c.Kind == CallKindAI {
		obsmetrics.ObserveAIRequest(c.Service, operation, dur, err)
	} else {
		obsmetrics.ObserveExternalCall(c.Service, operation, dur, err)
	}
	return err
}
