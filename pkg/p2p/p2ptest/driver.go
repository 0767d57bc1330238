// Package p2ptest provides a simulated NI-P2P driver and assertion helpers
// for testing code built on package p2p without FPGA hardware.
package p2ptest

import (
	"errors"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/nip2p-go/pkg/p2p"
)

// Operation names recorded by Driver.
const (
	OpCreateAndLink   = "CreateAndLinkStream"
	OpDestroy         = "DestroyStream"
	OpLink            = "LinkStream"
	OpUnlink          = "UnlinkStream"
	OpEnable          = "EnableStream"
	OpDisable         = "DisableStream"
	OpFlushAndDisable = "FlushAndDisableStream"
	OpWaitForEvent    = "WaitForStreamEvent"
	OpGetAttribute    = "GetAttribute"
)

// Call is one recorded driver call.
type Call struct {
	Op     string
	Handle p2p.Handle
}

type stream struct {
	writer     p2p.Endpoint
	reader     p2p.Endpoint
	state      p2p.State
	flushUntil time.Time
	attrs      map[p2p.Attribute]uint32
	events     *queue.Queue
}

// Driver is an in-memory p2p.Driver that simulates the stream state machine.
// It is safe for concurrent use.
//
// Transitions the hardware would make on its own (entering or leaving
// Flushing) can be driven with SetState or FlushDuration.
type Driver struct {
	// FlushDuration is how long an enabled stream takes to drain. A flush
	// whose timeout is shorter leaves the stream Flushing until it elapses.
	FlushDuration time.Duration
	// MaxStreams limits concurrently live streams; zero means unlimited.
	MaxStreams int
	// Incompatible, when set, rejects endpoint pairs with IncompatibleEndpoints.
	Incompatible func(writer, reader p2p.Endpoint) bool

	mu      sync.Mutex
	next    p2p.Handle
	streams map[p2p.Handle]*stream
	inUse   map[p2p.Endpoint]p2p.Handle
	fail    map[string][]p2p.Status
	calls   []Call
	now     func() time.Time
}

var _ p2p.Driver = (*Driver)(nil)

// NewDriver returns an empty simulated driver.
func NewDriver() *Driver {
	return &Driver{
		streams: make(map[p2p.Handle]*stream),
		inUse:   make(map[p2p.Endpoint]p2p.Handle),
		fail:    make(map[string][]p2p.Status),
		now:     time.Now,
	}
}

// FailNext makes the next call of op return st. For OpCreateAndLink a warning
// status still allocates the stream, like a driver that created it and then
// reported the warning.
func (d *Driver) FailNext(op string, st p2p.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = append(d.fail[op], st)
}

// SetState forces the state of stream h, as the hardware would.
func (d *Driver) SetState(h p2p.Handle, st p2p.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.streams[h]; ok {
		s.state = st
		s.flushUntil = time.Time{}
	}
}

// SetAttribute sets the value returned for attr on stream h.
func (d *Driver) SetAttribute(h p2p.Handle, attr p2p.Attribute, v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.streams[h]; ok {
		s.attrs[attr] = v
	}
}

// Signal queues ev for waiters on stream h. It reports false if h is not live.
func (d *Driver) Signal(h p2p.Handle, ev p2p.Event) bool {
	d.mu.Lock()
	s, ok := d.streams[h]
	d.mu.Unlock()
	if !ok {
		return false
	}
	return s.events.Put(ev) == nil
}

// Calls returns the recorded calls in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallCount returns how many times op was called.
func (d *Driver) CallCount(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Live returns the number of streams not yet destroyed.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

// begin records the call and pops an injected failure. Must hold d.mu.
func (d *Driver) begin(op string, h p2p.Handle) (p2p.Status, bool) {
	d.calls = append(d.calls, Call{Op: op, Handle: h})
	q := d.fail[op]
	if len(q) == 0 {
		return p2p.StatusSuccess, false
	}
	d.fail[op] = q[1:]
	return q[0], true
}

// lookup returns stream h with any finished flush applied. Must hold d.mu.
func (d *Driver) lookup(h p2p.Handle) (*stream, bool) {
	s, ok := d.streams[h]
	if !ok {
		return nil, false
	}
	if s.state == p2p.StateFlushing && !s.flushUntil.IsZero() && !d.now().Before(s.flushUntil) {
		s.state = p2p.StateDisabled
		s.flushUntil = time.Time{}
	}
	return s, true
}

func (d *Driver) CreateAndLinkStream(writer, reader p2p.Endpoint, enable bool) (p2p.Handle, p2p.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	injected, failed := d.begin(OpCreateAndLink, 0)
	if failed && !injected.IsWarning() {
		return 0, injected
	}
	switch {
	case writer == 0 || reader == 0:
		return 0, p2p.StatusInvalidEndpointHandle
	case writer == reader:
		return 0, p2p.StatusEndpointsAreEquivalent
	case d.Incompatible != nil && d.Incompatible(writer, reader):
		return 0, p2p.StatusIncompatibleEndpoints
	}
	if _, busy := d.inUse[writer]; busy {
		return 0, p2p.StatusEndpointAlreadyExists
	}
	if _, busy := d.inUse[reader]; busy {
		return 0, p2p.StatusEndpointAlreadyExists
	}
	if d.MaxStreams > 0 && len(d.streams) >= d.MaxStreams {
		return 0, p2p.StatusStreamResourcesInUse
	}

	d.next++
	h := d.next
	st := p2p.StateDisabled
	if enable {
		st = p2p.StateEnabled
	}
	d.streams[h] = &stream{
		writer: writer,
		reader: reader,
		state:  st,
		attrs:  make(map[p2p.Attribute]uint32),
		events: queue.New(16),
	}
	d.inUse[writer] = h
	d.inUse[reader] = h
	return h, injected
}

func (d *Driver) DestroyStream(h p2p.Handle) p2p.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, failed := d.begin(OpDestroy, h); failed {
		return st
	}
	s, ok := d.streams[h]
	if !ok {
		return p2p.StatusInvalidStreamHandle
	}
	delete(d.inUse, s.writer)
	delete(d.inUse, s.reader)
	delete(d.streams, h)
	s.events.Dispose()
	return p2p.StatusSuccess
}

func (d *Driver) LinkStream(h p2p.Handle) p2p.Status {
	return d.transition(OpLink, h, func(s *stream) p2p.Status {
		if s.state == p2p.StateUnlinked {
			s.state = p2p.StateDisabled
		}
		return p2p.StatusSuccess
	})
}

func (d *Driver) UnlinkStream(h p2p.Handle) p2p.Status {
	return d.transition(OpUnlink, h, func(s *stream) p2p.Status {
		if s.state == p2p.StateFlushing {
			return p2p.StatusStreamResourcesInUse
		}
		s.state = p2p.StateUnlinked
		return p2p.StatusSuccess
	})
}

func (d *Driver) EnableStream(h p2p.Handle) p2p.Status {
	return d.transition(OpEnable, h, func(s *stream) p2p.Status {
		switch s.state {
		case p2p.StateUnlinked:
			return p2p.StatusStreamNotLinked
		case p2p.StateFlushing:
			return p2p.StatusStreamResourcesInUse
		}
		s.state = p2p.StateEnabled
		return p2p.StatusSuccess
	})
}

func (d *Driver) DisableStream(h p2p.Handle) p2p.Status {
	return d.transition(OpDisable, h, func(s *stream) p2p.Status {
		if s.state == p2p.StateUnlinked {
			return p2p.StatusStreamNotLinked
		}
		s.state = p2p.StateDisabled
		s.flushUntil = time.Time{}
		return p2p.StatusSuccess
	})
}

func (d *Driver) FlushAndDisableStream(h p2p.Handle, timeoutMsec int32) (bool, p2p.Status) {
	timedOut := false
	st := d.transition(OpFlushAndDisable, h, func(s *stream) p2p.Status {
		timeout := time.Duration(timeoutMsec) * time.Millisecond
		switch s.state {
		case p2p.StateUnlinked:
			return p2p.StatusStreamNotLinked
		case p2p.StateFlushing:
			// A drain already in progress; one forced with SetState never ends.
			if s.flushUntil.IsZero() || (timeoutMsec >= 0 && s.flushUntil.Sub(d.now()) > timeout) {
				timedOut = true
				return p2p.StatusSuccess
			}
			s.state = p2p.StateDisabled
			s.flushUntil = time.Time{}
			return p2p.StatusSuccess
		case p2p.StateEnabled, p2p.StatePaused:
		default:
			return p2p.StatusSuccess
		}
		if timeoutMsec < 0 || d.FlushDuration <= timeout {
			s.state = p2p.StateDisabled
			return p2p.StatusSuccess
		}
		s.state = p2p.StateFlushing
		s.flushUntil = d.now().Add(d.FlushDuration)
		timedOut = true
		return p2p.StatusSuccess
	})
	return timedOut, st
}

func (d *Driver) WaitForStreamEvent(h p2p.Handle, ev p2p.Event, timeoutMsec int32) p2p.Status {
	d.mu.Lock()
	if st, failed := d.begin(OpWaitForEvent, h); failed {
		d.mu.Unlock()
		return st
	}
	s, ok := d.lookup(h)
	d.mu.Unlock()
	if !ok {
		return p2p.StatusInvalidStreamHandle
	}

	// Events other than ev are consumed and dropped.
	var deadline time.Time
	if timeoutMsec >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMsec) * time.Millisecond)
	}
	for {
		var wait time.Duration
		if timeoutMsec >= 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				if s.events.Empty() {
					return p2p.StatusOperationTimedOut
				}
				wait = time.Millisecond
			}
		}
		items, err := s.events.Poll(1, wait)
		switch {
		case errors.Is(err, queue.ErrTimeout):
			return p2p.StatusOperationTimedOut
		case errors.Is(err, queue.ErrDisposed):
			return p2p.StatusStreamWasClosed
		case err != nil:
			return p2p.StatusSoftwareFault
		}
		if len(items) == 1 && items[0].(p2p.Event) == ev {
			return p2p.StatusSuccess
		}
	}
}

func (d *Driver) GetAttribute(h p2p.Handle, attr p2p.Attribute) (uint32, p2p.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, failed := d.begin(OpGetAttribute, h); failed {
		return 0, st
	}
	s, ok := d.lookup(h)
	if !ok {
		return 0, p2p.StatusInvalidStreamHandle
	}
	if attr == p2p.AttributeStreamState {
		return uint32(s.state), p2p.StatusSuccess
	}
	if !attr.Known() {
		return 0, p2p.StatusInvalidAttribute
	}
	return s.attrs[attr], p2p.StatusSuccess
}

func (d *Driver) transition(op string, h p2p.Handle, fn func(*stream) p2p.Status) p2p.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, failed := d.begin(op, h); failed {
		return st
	}
	s, ok := d.lookup(h)
	if !ok {
		return p2p.StatusInvalidStreamHandle
	}
	return fn(s)
}
