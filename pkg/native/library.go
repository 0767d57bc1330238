// Package native binds the NI-P2P driver library at run time.
//
// The library is located by path (or the platform default name) and its
// nip2p* entry points are resolved once at Open. A *Library implements
// p2p.Driver and passes raw driver status codes through untouched.
package native

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/srediag/nip2p-go/internal/logging"
	"github.com/srediag/nip2p-go/pkg/p2p"
)

// ErrUnsupported is returned by Open when the driver cannot be loaded on this
// platform or the binary was built without cgo.
var ErrUnsupported = errors.New("native: NI-P2P driver binding is not supported on this platform")

const (
	symCreateAndLink = iota
	symDestroy
	symLink
	symUnlink
	symEnable
	symDisable
	symFlushAndDisable
	symWaitForEvent
	symGetAttribute
	symCount
)

var symbolNames = [symCount]string{
	symCreateAndLink:   "nip2pCreateAndLinkStream",
	symDestroy:         "nip2pDestroyStream",
	symLink:            "nip2pLinkStream",
	symUnlink:          "nip2pUnlinkStream",
	symEnable:          "nip2pEnableStream",
	symDisable:         "nip2pDisableStream",
	symFlushAndDisable: "nip2pFlushAndDisableStream",
	symWaitForEvent:    "nip2pWaitForStreamEvent",
	symGetAttribute:    "nip2pGetAttribute",
}

// attributeArgs lays out nip2pGetAttribute's arguments: the second parameter
// is reserved and must be zero, and the attribute id is passed in through the
// in/out value that receives the result.
func attributeArgs(attr uint32) (reserved, inout uint32) {
	return 0, attr
}

// Library is a loaded driver library.
//
// Calls made after Close return p2p.StatusSoftwareFault without reaching the
// driver. Close should only be called once every stream has been destroyed.
type Library struct {
	path string
	log  *zap.Logger

	mu  sync.RWMutex
	lib *lib
}

var _ p2p.Driver = (*Library)(nil)

// Open loads the driver library at path, or DefaultLibrary when path is empty.
func Open(path string) (*Library, error) {
	if path == "" {
		path = DefaultLibrary
	}
	log := logging.Named("native").With(zap.String("library", path))
	l, err := load(path)
	if err != nil {
		return nil, err
	}
	log.Debug("driver library loaded")
	return &Library{path: path, log: log, lib: l}, nil
}

// Path returns the path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Close unloads the library.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lib == nil {
		return nil
	}
	err := l.lib.unload()
	l.lib = nil
	l.log.Debug("driver library unloaded", zap.Error(err))
	return err
}

func (l *Library) acquire() (*lib, func()) {
	l.mu.RLock()
	if l.lib == nil {
		l.mu.RUnlock()
		return nil, func() {}
	}
	return l.lib, l.mu.RUnlock
}

func (l *Library) CreateAndLinkStream(writer, reader p2p.Endpoint, enable bool) (p2p.Handle, p2p.Status) {
	lb, release := l.acquire()
	defer release()
	if lb == nil {
		return 0, p2p.StatusSoftwareFault
	}
	h, st := lb.createAndLink(uint32(writer), uint32(reader), enable)
	return p2p.Handle(h), p2p.Status(st)
}

func (l *Library) handleCall(sym int, h p2p.Handle) p2p.Status {
	lb, release := l.acquire()
	defer release()
	if lb == nil {
		return p2p.StatusSoftwareFault
	}
	return p2p.Status(lb.handleCall(sym, uint32(h)))
}

func (l *Library) DestroyStream(h p2p.Handle) p2p.Status { return l.handleCall(symDestroy, h) }
func (l *Library) LinkStream(h p2p.Handle) p2p.Status    { return l.handleCall(symLink, h) }
func (l *Library) UnlinkStream(h p2p.Handle) p2p.Status  { return l.handleCall(symUnlink, h) }
func (l *Library) EnableStream(h p2p.Handle) p2p.Status  { return l.handleCall(symEnable, h) }
func (l *Library) DisableStream(h p2p.Handle) p2p.Status { return l.handleCall(symDisable, h) }

func (l *Library) FlushAndDisableStream(h p2p.Handle, timeoutMsec int32) (bool, p2p.Status) {
	lb, release := l.acquire()
	defer release()
	if lb == nil {
		return false, p2p.StatusSoftwareFault
	}
	timedOut, st := lb.flushAndDisable(uint32(h), timeoutMsec)
	return timedOut, p2p.Status(st)
}

func (l *Library) WaitForStreamEvent(h p2p.Handle, ev p2p.Event, timeoutMsec int32) p2p.Status {
	lb, release := l.acquire()
	defer release()
	if lb == nil {
		return p2p.StatusSoftwareFault
	}
	return p2p.Status(lb.waitForEvent(uint32(h), uint32(ev), timeoutMsec))
}

func (l *Library) GetAttribute(h p2p.Handle, attr p2p.Attribute) (uint32, p2p.Status) {
	lb, release := l.acquire()
	defer release()
	if lb == nil {
		return 0, p2p.StatusSoftwareFault
	}
	v, st := lb.getAttribute(uint32(h), uint32(attr))
	return v, p2p.Status(st)
}
