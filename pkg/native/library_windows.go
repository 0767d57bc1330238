//go:build windows

package native

import (
	"fmt"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// DefaultLibrary is the DLL searched when Open is given no path.
const DefaultLibrary = "nip2p.dll"

type lib struct {
	dll   *windows.LazyDLL
	procs [symCount]*windows.LazyProc
}

func load(path string) (*lib, error) {
	l := &lib{dll: windows.NewLazyDLL(path)}
	if err := l.dll.Load(); err != nil {
		return nil, fmt.Errorf("native: load %s: %w", path, err)
	}
	var err error
	for i, name := range symbolNames {
		p := l.dll.NewProc(name)
		if ferr := p.Find(); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("native: resolve %s in %s: %w", name, path, ferr))
			continue
		}
		l.procs[i] = p
	}
	if err != nil {
		return nil, multierr.Append(err, l.unload())
	}
	return l, nil
}

func (l *lib) unload() error {
	if err := windows.FreeLibrary(windows.Handle(l.dll.Handle())); err != nil {
		return fmt.Errorf("native: unload: %w", err)
	}
	return nil
}

func (l *lib) createAndLink(writer, reader uint32, enable bool) (uint32, int32) {
	var en uintptr
	if enable {
		en = 1
	}
	var h uint32
	r, _, _ := l.procs[symCreateAndLink].Call(uintptr(writer), uintptr(reader), en, uintptr(unsafe.Pointer(&h)))
	return h, int32(r)
}

func (l *lib) handleCall(sym int, h uint32) int32 {
	r, _, _ := l.procs[sym].Call(uintptr(h))
	return int32(r)
}

func (l *lib) flushAndDisable(h uint32, timeoutMsec int32) (bool, int32) {
	var timedOut uint8
	r, _, _ := l.procs[symFlushAndDisable].Call(uintptr(h), uintptr(timeoutMsec), uintptr(unsafe.Pointer(&timedOut)))
	return timedOut != 0, int32(r)
}

func (l *lib) waitForEvent(h, ev uint32, timeoutMsec int32) int32 {
	r, _, _ := l.procs[symWaitForEvent].Call(uintptr(h), uintptr(ev), uintptr(timeoutMsec))
	return int32(r)
}

func (l *lib) getAttribute(h, attr uint32) (uint32, int32) {
	reserved, v := attributeArgs(attr)
	r, _, _ := l.procs[symGetAttribute].Call(uintptr(h), uintptr(reserved), uintptr(unsafe.Pointer(&v)))
	return v, int32(r)
}
