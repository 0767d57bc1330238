//go:build !windows && !(linux && cgo)

package native

import "github.com/srediag/nip2p-go/pkg/p2p"

// DefaultLibrary is empty where no binding exists.
const DefaultLibrary = ""

const unsupported = int32(p2p.StatusNotSupported)

type lib struct{}

func load(string) (*lib, error) { return nil, ErrUnsupported }

func (*lib) unload() error                                      { return nil }
func (*lib) createAndLink(uint32, uint32, bool) (uint32, int32) { return 0, unsupported }
func (*lib) handleCall(int, uint32) int32                       { return unsupported }
func (*lib) flushAndDisable(uint32, int32) (bool, int32)        { return false, unsupported }
func (*lib) waitForEvent(uint32, uint32, int32) int32           { return unsupported }
func (*lib) getAttribute(uint32, uint32) (uint32, int32)        { return 0, unsupported }
