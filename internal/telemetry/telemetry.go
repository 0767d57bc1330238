// Package telemetry instruments native driver calls with OpenTelemetry spans and metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ScopeName is the instrumentation scope used for spans and instruments.
const ScopeName = "github.com/srediag/nip2p-go"

// Instruments records driver calls. The zero value is not usable; use New.
type Instruments struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds instruments from the given meter and tracer. Nil arguments fall
// back to no-op implementations, as do instruments the meter fails to create.
func New(meter metric.Meter, tracer trace.Tracer) *Instruments {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(ScopeName)
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(ScopeName)
	}
	in := &Instruments{tracer: tracer}

	var err error
	in.calls, err = meter.Int64Counter("nip2p.driver.calls",
		metric.WithDescription("Native P2P driver calls by operation and status."))
	if err != nil {
		in.calls, _ = metricnoop.Meter{}.Int64Counter("nip2p.driver.calls")
	}
	in.duration, err = meter.Float64Histogram("nip2p.driver.call.duration",
		metric.WithDescription("Latency of native P2P driver calls."),
		metric.WithUnit("ms"))
	if err != nil {
		in.duration, _ = metricnoop.Meter{}.Float64Histogram("nip2p.driver.call.duration")
	}
	return in
}

// Call is an in-flight driver call.
type Call struct {
	in    *Instruments
	ctx   context.Context
	span  trace.Span
	op    string
	start time.Time
}

// Start opens a span for op on the stream identified by handle.
func (in *Instruments) Start(ctx context.Context, op string, handle uint32) *Call {
	ctx, span := in.tracer.Start(ctx, "nip2p."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int64("nip2p.handle", int64(handle))))
	return &Call{in: in, ctx: ctx, span: span, op: op, start: time.Now()}
}

// End records the driver status of the call. code is the raw status value
// and name its symbolic rendering.
func (c *Call) End(code int32, name string) {
	attrs := []attribute.KeyValue{
		attribute.String("nip2p.op", c.op),
		attribute.String("nip2p.status", name),
	}
	c.in.calls.Add(c.ctx, 1, metric.WithAttributes(attrs...))
	c.in.duration.Record(c.ctx, float64(time.Since(c.start))/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("nip2p.op", c.op)))

	c.span.SetAttributes(attribute.Int64("nip2p.status_code", int64(code)))
	if code != 0 {
		c.span.SetStatus(codes.Error, name)
	}
	c.span.End()
}
