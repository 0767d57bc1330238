package p2p

import (
	"fmt"
	"sort"
	"strconv"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/srediag/nip2p-go/internal/logging"
)

// Registry opens streams on one driver and keeps track of the ones still
// alive so they can be torn down together.
type Registry struct {
	drv     Driver
	opts    []Option
	cfg     Config
	log     *zap.Logger
	streams cmap.ConcurrentMap[Handle, *Stream]
}

// NewRegistry returns a registry whose streams are created with opts unless
// overridden per Open call.
func NewRegistry(drv Driver, opts ...Option) *Registry {
	o := newOptions(opts)
	log := o.logger
	if log == nil {
		log = logging.Named("registry")
	}
	return &Registry{
		drv:  drv,
		opts: opts,
		cfg:  *o.cfg,
		log:  log,
		streams: cmap.NewWithCustomShardingFunction[Handle, *Stream](func(h Handle) uint32 {
			return uint32(h)
		}),
	}
}

// Open creates and links a stream and tracks it until it is destroyed.
func (r *Registry) Open(writer, reader Endpoint, opts ...Option) (*Stream, error) {
	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)
	s, err := newStream(r.drv, writer, reader, newOptions(all))
	if err != nil {
		return nil, err
	}
	s.onDestroy = r.forget
	r.streams.Set(s.Handle(), s)
	return s, nil
}

// Connect links the FIFO behind writerFIFO to the FIFO behind readerFIFO.
func (r *Registry) Connect(writerFIFO, readerFIFO EndpointSource, opts ...Option) (*Stream, error) {
	writer, err := writerFIFO.PeerToPeerEndpoint()
	if err != nil {
		return nil, fmt.Errorf("writer endpoint: %w", err)
	}
	reader, err := readerFIFO.PeerToPeerEndpoint()
	if err != nil {
		return nil, fmt.Errorf("reader endpoint: %w", err)
	}
	return r.Open(writer, reader, opts...)
}

func (r *Registry) forget(h Handle) {
	r.streams.Remove(h)
}

// Get returns the live stream with handle h.
func (r *Registry) Get(h Handle) (*Stream, bool) {
	return r.streams.Get(h)
}

// Len returns the number of live streams.
func (r *Registry) Len() int { return r.streams.Count() }

// Streams returns the live streams ordered by handle.
func (r *Registry) Streams() []*Stream {
	items := r.streams.Items()
	out := make([]*Stream, 0, len(items))
	for _, s := range items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle() < out[j].Handle() })
	return out
}

// DestroyAll flushes every enabled stream (bounded by Config.FlushTimeout)
// and destroys all live streams. Every stream is attempted; failures are
// combined in the returned error.
func (r *Registry) DestroyAll() error {
	var errs error
	for _, s := range r.Streams() {
		if st, err := s.State(); err == nil && st == StateEnabled {
			timedOut, err := s.FlushAndDisable(r.cfg.FlushTimeout)
			if err != nil {
				errs = multierr.Append(errs, err)
			} else if timedOut {
				r.log.Warn("flush timed out before destroy",
					zap.Uint32("handle", uint32(s.Handle())), zap.Duration("timeout", r.cfg.FlushTimeout))
			}
		}
		if err := s.Destroy(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Collector exports the number of live streams and the live state of each one.
func (r *Registry) Collector() prometheus.Collector {
	return &registryCollector{
		r: r,
		open: prometheus.NewDesc("nip2p_open_streams",
			"Number of P2P streams created and not yet destroyed.", nil, nil),
		state: prometheus.NewDesc("nip2p_stream_state",
			"Driver-reported state code of each live P2P stream.",
			[]string{"handle", "writer", "reader", "state"}, nil),
	}
}

type registryCollector struct {
	r     *Registry
	open  *prometheus.Desc
	state *prometheus.Desc
}

func (c *registryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.state
}

func (c *registryCollector) Collect(ch chan<- prometheus.Metric) {
	streams := c.r.Streams()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(len(streams)))
	for _, s := range streams {
		st, err := s.State()
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(st),
			strconv.FormatUint(uint64(s.Handle()), 10),
			strconv.FormatUint(uint64(s.Writer()), 10),
			strconv.FormatUint(uint64(s.Reader()), 10),
			st.String())
	}
}
