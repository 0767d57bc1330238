// Package p2p manages point-to-point streams between two FPGA FIFOs through
// the NI-P2P driver.
//
// A Stream owns one driver-side stream object from create-and-link until
// Destroy. Every method issues exactly one driver call and converts a nonzero
// status into a *StatusError; the stream state is never cached.
package p2p

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/srediag/nip2p-go/internal/logging"
	"github.com/srediag/nip2p-go/internal/telemetry"
)

// Stream is a linked writer/reader pair. Calls on one Stream must be issued
// sequentially by its owner.
type Stream struct {
	drv    Driver
	handle atomic.Uint32
	writer Endpoint
	reader Endpoint

	cfg       Config
	log       *zap.Logger
	inst      *telemetry.Instruments
	ctx       context.Context
	tolerated map[Status]bool

	onDestroy func(Handle)
}

// NewStream creates a driver stream and links writer to reader. Unless
// WithEnable(false) is given the stream is also enabled by the same call.
//
// If the driver reports a failure after allocating a handle, the half-created
// stream is destroyed before the error is returned.
func NewStream(drv Driver, writer, reader Endpoint, opts ...Option) (*Stream, error) {
	return newStream(drv, writer, reader, newOptions(opts))
}

func newStream(drv Driver, writer, reader Endpoint, o *options) (*Stream, error) {
	if err := VerifyConfig(o.cfg); err != nil {
		return nil, err
	}
	log := o.logger
	if log == nil {
		log = logging.Named("stream")
	}
	s := &Stream{
		drv:       drv,
		writer:    writer,
		reader:    reader,
		cfg:       *o.cfg,
		log:       log,
		inst:      telemetry.New(o.meter, o.tracer),
		ctx:       o.ctx,
		tolerated: o.tolerated,
	}

	var h Handle
	err := s.call("create and link stream", 0, func() Status {
		var st Status
		h, st = drv.CreateAndLinkStream(writer, reader, o.enable)
		return st
	})
	if err != nil {
		if h != 0 {
			if st := drv.DestroyStream(h); st != StatusSuccess {
				s.log.Warn("destroy of half-created stream failed",
					zap.Uint32("handle", uint32(h)), zap.Stringer("status", st))
			}
		}
		return nil, err
	}
	if h == 0 {
		return nil, &StatusError{Op: "create and link stream", Status: StatusInvalidStreamHandle}
	}
	s.handle.Store(uint32(h))
	s.log = s.log.With(zap.Uint32("handle", uint32(h)))
	s.log.Info("stream created",
		zap.Uint32("writer", uint32(writer)),
		zap.Uint32("reader", uint32(reader)),
		zap.Bool("enabled", o.enable))
	return s, nil
}

// Handle returns the driver handle, or zero once the stream is destroyed.
func (s *Stream) Handle() Handle { return Handle(s.handle.Load()) }

// Writer returns the writer endpoint the stream was created with.
func (s *Stream) Writer() Endpoint { return s.writer }

// Reader returns the reader endpoint the stream was created with.
func (s *Stream) Reader() Endpoint { return s.reader }

// Destroy releases the driver stream. It is a no-op on a stream that is
// already destroyed, so it can be deferred on cleanup paths. A failed destroy
// keeps the handle so the call can be retried.
func (s *Stream) Destroy() error {
	h := s.Handle()
	if h == 0 {
		return nil
	}
	if err := s.call("destroy stream", h, func() Status { return s.drv.DestroyStream(h) }); err != nil {
		return err
	}
	if !s.handle.CompareAndSwap(uint32(h), 0) {
		return nil
	}
	s.log.Info("stream destroyed")
	if s.onDestroy != nil {
		s.onDestroy(h)
	}
	return nil
}

// Close is Destroy, for use as an io.Closer.
func (s *Stream) Close() error { return s.Destroy() }

// Link establishes the writer/reader association.
func (s *Stream) Link() error { return s.simple("link stream", s.drv.LinkStream) }

// Unlink breaks the writer/reader association without destroying the stream.
func (s *Stream) Unlink() error { return s.simple("unlink stream", s.drv.UnlinkStream) }

// Enable starts data flow.
func (s *Stream) Enable() error { return s.simple("enable stream", s.drv.EnableStream) }

// Disable stops data flow.
func (s *Stream) Disable() error { return s.simple("disable stream", s.drv.DisableStream) }

// FlushAndDisable asks the driver to drain in-flight data and then disable
// the stream. A drain that exceeds timeout is reported through timedOut, not
// as an error.
func (s *Stream) FlushAndDisable(timeout time.Duration) (timedOut bool, err error) {
	const op = "flush and disable stream"
	h, err := s.live(op)
	if err != nil {
		return false, err
	}
	err = s.call(op, h, func() Status {
		var st Status
		timedOut, st = s.drv.FlushAndDisableStream(h, msec(timeout))
		return st
	})
	if err != nil {
		return false, err
	}
	if timedOut {
		s.log.Info("flush timed out", zap.Duration("timeout", timeout))
	}
	return timedOut, nil
}

// WaitForEvent blocks until ev occurs or timeout elapses. Unlike
// FlushAndDisable, a timeout here is an error (StatusOperationTimedOut from
// the driver).
func (s *Stream) WaitForEvent(ev Event, timeout time.Duration) error {
	const op = "wait for stream event"
	h, err := s.live(op)
	if err != nil {
		return err
	}
	return s.call(op, h, func() Status { return s.drv.WaitForStreamEvent(h, ev, msec(timeout)) })
}

// Attribute reads a stream attribute from the driver.
func (s *Stream) Attribute(attr Attribute) (uint32, error) {
	const op = "get attribute"
	h, err := s.live(op)
	if err != nil {
		return 0, err
	}
	var v uint32
	err = s.call(op, h, func() Status {
		var st Status
		v, st = s.drv.GetAttribute(h, attr)
		return st
	})
	if err != nil {
		return 0, err
	}
	return v, nil
}

// State queries the live stream state.
func (s *Stream) State() (State, error) {
	v, err := s.Attribute(AttributeStreamState)
	if err != nil {
		return 0, err
	}
	return State(v), nil
}

func (s *Stream) simple(op string, fn func(Handle) Status) error {
	h, err := s.live(op)
	if err != nil {
		return err
	}
	return s.call(op, h, func() Status { return fn(h) })
}

// live returns the current handle, failing without a driver call once the
// stream has been destroyed.
func (s *Stream) live(op string) (Handle, error) {
	h := s.Handle()
	if h == 0 {
		return 0, &StatusError{Op: op, Status: StatusInvalidStreamHandle}
	}
	return h, nil
}

func (s *Stream) call(op string, h Handle, fn func() Status) error {
	c := s.inst.Start(s.ctx, op, uint32(h))
	st := fn()
	c.End(int32(st), st.String())

	if st.IsWarning() && s.tolerated[st] {
		s.log.Warn("driver warning tolerated", zap.String("op", op), zap.Stringer("status", st))
		return nil
	}
	if err := check(op, st); err != nil {
		s.log.Debug("driver call failed", zap.String("op", op),
			zap.Stringer("status", st), zap.Int32("code", int32(st)))
		return err
	}
	s.log.Debug("driver call", zap.String("op", op))
	return nil
}
