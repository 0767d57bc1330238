package p2p

// Endpoint identifies one side (writer or reader) of a potential P2P link.
// It is obtained from a FIFO and is not owned by this package.
type Endpoint uint32

// Handle identifies a driver-side stream object. Zero means no stream.
type Handle uint32

// Event identifies a stream event the driver can wait on.
type Event uint32

// Driver is the native NI-P2P call contract. Every method maps to one native
// function and returns its raw status; callers are expected to go through
// Stream, which converts statuses into errors.
type Driver interface {
	CreateAndLinkStream(writer, reader Endpoint, enable bool) (Handle, Status)
	DestroyStream(h Handle) Status
	LinkStream(h Handle) Status
	UnlinkStream(h Handle) Status
	EnableStream(h Handle) Status
	DisableStream(h Handle) Status
	// FlushAndDisableStream drains in-flight data and disables the stream.
	// timedOut reports that the drain did not finish within timeoutMsec.
	FlushAndDisableStream(h Handle, timeoutMsec int32) (timedOut bool, status Status)
	WaitForStreamEvent(h Handle, ev Event, timeoutMsec int32) Status
	GetAttribute(h Handle, attr Attribute) (uint32, Status)
}

// EndpointSource is implemented by FIFOs that can hand out a peer-to-peer endpoint.
type EndpointSource interface {
	PeerToPeerEndpoint() (Endpoint, error)
}
