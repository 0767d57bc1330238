// Package health exposes liveness, readiness and metrics endpoints for the
// streams tracked by a p2p.Registry.
package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/srediag/nip2p-go/pkg/p2p"
)

// DefaultCheckTimeout bounds a single readiness or liveness evaluation.
const DefaultCheckTimeout = 2 * time.Second

// Monitor serves /live, /ready and /metrics for one registry.
//
// A registry is live while the driver answers state queries for every tracked
// stream, and ready once it tracks at least one stream and all of them are
// Enabled.
type Monitor struct {
	reg     *p2p.Registry
	prom    *prometheus.Registry
	checks  healthcheck.Handler
	timeout time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.timeout = d }
}

// WithPrometheus registers metrics on reg instead of a private registry.
func WithPrometheus(reg *prometheus.Registry) Option {
	return func(m *Monitor) { m.prom = reg }
}

// New builds a monitor for reg and registers its collectors.
func New(reg *p2p.Registry, opts ...Option) (*Monitor, error) {
	m := &Monitor{reg: reg, timeout: DefaultCheckTimeout}
	for _, o := range opts {
		o(m)
	}
	if m.prom == nil {
		m.prom = prometheus.NewRegistry()
	}
	if err := m.prom.Register(reg.Collector()); err != nil {
		return nil, fmt.Errorf("register stream collector: %w", err)
	}
	m.checks = healthcheck.NewMetricsHandler(m.prom, "nip2p")
	m.checks.AddLivenessCheck("driver", healthcheck.Timeout(m.Live, m.timeout))
	m.checks.AddReadinessCheck("streams-enabled", healthcheck.Timeout(m.Ready, m.timeout))
	return m, nil
}

// Live reports an error for every stream whose state cannot be queried.
func (m *Monitor) Live() error {
	var err error
	for _, s := range m.reg.Streams() {
		if _, serr := s.State(); serr != nil {
			err = multierr.Append(err, fmt.Errorf("stream %d: %w", s.Handle(), serr))
		}
	}
	return err
}

// Ready reports an error unless every tracked stream is Enabled.
func (m *Monitor) Ready() error {
	streams := m.reg.Streams()
	if len(streams) == 0 {
		return fmt.Errorf("no streams open")
	}
	var err error
	for _, s := range streams {
		if serr := s.EnsureEnabled(); serr != nil {
			err = multierr.Append(err, fmt.Errorf("stream %d: %w", s.Handle(), serr))
		}
	}
	return err
}

// Handler returns a mux serving /live, /ready and /metrics.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", m.checks.LiveEndpoint)
	mux.HandleFunc("/ready", m.checks.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(m.prom, promhttp.HandlerOpts{}))
	return mux
}

// Gatherer exposes the metrics registry, mainly for tests.
func (m *Monitor) Gatherer() prometheus.Gatherer { return m.prom }
