package p2p

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type options struct {
	enable    bool
	cfg       *Config
	logger    *zap.Logger
	meter     metric.Meter
	tracer    trace.Tracer
	ctx       context.Context
	tolerated map[Status]bool
}

// Option configures a Stream or Registry.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{enable: true}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = DefaultConfig()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	return o
}

// WithEnable controls whether create-and-link also enables the stream.
// Streams are enabled by default.
func WithEnable(enable bool) Option {
	return func(o *options) { o.enable = enable }
}

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(c *Config) Option {
	return func(o *options) { o.cfg = c }
}

// WithLogger replaces the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeter sets the meter used for driver call metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the tracer used for driver call spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithContext sets the parent context of driver call spans.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithToleratedWarnings makes the listed warning codes succeed instead of
// failing the call. Error (negative) codes are ignored: they always fail.
func WithToleratedWarnings(codes ...Status) Option {
	return func(o *options) {
		if o.tolerated == nil {
			o.tolerated = make(map[Status]bool, len(codes))
		}
		for _, c := range codes {
			if c.IsWarning() {
				o.tolerated[c] = true
			}
		}
	}
}
