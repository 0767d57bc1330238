//go:build linux && cgo

package native

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

typedef int32_t (*nip2p_create_fn)(uint32_t, uint32_t, uint8_t, uint32_t *);
typedef int32_t (*nip2p_handle_fn)(uint32_t);
typedef int32_t (*nip2p_flush_fn)(uint32_t, int32_t, bool *);
typedef int32_t (*nip2p_wait_fn)(uint32_t, uint32_t, int32_t);
typedef int32_t (*nip2p_attr_fn)(uint32_t, uint32_t, void *);

static int32_t call_create(void *f, uint32_t w, uint32_t r, uint8_t en, uint32_t *h) {
	return ((nip2p_create_fn)f)(w, r, en, h);
}
static int32_t call_handle(void *f, uint32_t h) {
	return ((nip2p_handle_fn)f)(h);
}
static int32_t call_flush(void *f, uint32_t h, int32_t t, bool *timed_out) {
	return ((nip2p_flush_fn)f)(h, t, timed_out);
}
static int32_t call_wait(void *f, uint32_t h, uint32_t ev, int32_t t) {
	return ((nip2p_wait_fn)f)(h, ev, t);
}
static int32_t call_attr(void *f, uint32_t h, uint32_t reserved, uint32_t *v) {
	return ((nip2p_attr_fn)f)(h, reserved, v);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"go.uber.org/multierr"
)

// DefaultLibrary is the soname searched when Open is given no path.
const DefaultLibrary = "libnip2p.so"

type lib struct {
	handle unsafe.Pointer
	syms   [symCount]unsafe.Pointer
}

func dlerror() string {
	if msg := C.dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return "unknown error"
}

func load(path string) (*lib, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if h == nil {
		return nil, fmt.Errorf("native: load %s: %s", path, dlerror())
	}
	l := &lib{handle: h}

	var err error
	for i, name := range symbolNames {
		cname := C.CString(name)
		C.dlerror()
		sym := C.dlsym(h, cname)
		C.free(unsafe.Pointer(cname))
		if sym == nil {
			err = multierr.Append(err, fmt.Errorf("native: resolve %s in %s: %s", name, path, dlerror()))
			continue
		}
		l.syms[i] = sym
	}
	if err != nil {
		return nil, multierr.Append(err, l.unload())
	}
	return l, nil
}

func (l *lib) unload() error {
	if C.dlclose(l.handle) != 0 {
		return fmt.Errorf("native: unload: %s", dlerror())
	}
	return nil
}

func (l *lib) createAndLink(writer, reader uint32, enable bool) (uint32, int32) {
	var en C.uint8_t
	if enable {
		en = 1
	}
	var h C.uint32_t
	st := C.call_create(l.syms[symCreateAndLink], C.uint32_t(writer), C.uint32_t(reader), en, &h)
	return uint32(h), int32(st)
}

func (l *lib) handleCall(sym int, h uint32) int32 {
	return int32(C.call_handle(l.syms[sym], C.uint32_t(h)))
}

func (l *lib) flushAndDisable(h uint32, timeoutMsec int32) (bool, int32) {
	var timedOut C.bool
	st := C.call_flush(l.syms[symFlushAndDisable], C.uint32_t(h), C.int32_t(timeoutMsec), &timedOut)
	return bool(timedOut), int32(st)
}

func (l *lib) waitForEvent(h, ev uint32, timeoutMsec int32) int32 {
	return int32(C.call_wait(l.syms[symWaitForEvent], C.uint32_t(h), C.uint32_t(ev), C.int32_t(timeoutMsec)))
}

func (l *lib) getAttribute(h, attr uint32) (uint32, int32) {
	reserved, inout := attributeArgs(attr)
	v := C.uint32_t(inout)
	st := C.call_attr(l.syms[symGetAttribute], C.uint32_t(h), C.uint32_t(reserved), &v)
	return uint32(v), int32(st)
}
