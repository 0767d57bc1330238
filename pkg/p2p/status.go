package p2p

import (
	"errors"
	"fmt"
	"strconv"
)

// Status is the signed result code returned by every native P2P call.
// Zero is success, negative codes are errors and the single positive code is a warning.
type Status int32

// Status codes reported by the NI-P2P driver.
const (
	StatusSuccess                   Status = 0
	StatusMemoryFull                Status = -308000
	StatusNotSupported              Status = -308001
	StatusIOOperationFailed         Status = -308002
	StatusDeviceNotFound            Status = -308003
	StatusBadPointer                Status = -308004
	StatusStreamResourcesInUse      Status = -308005
	StatusEndpointAlreadyExists     Status = -308006
	StatusEndpointNotFound          Status = -308007
	StatusEndpointsAreEquivalent    Status = -308008
	StatusInvalidStreamID           Status = -308009
	StatusDeviceAlreadyExists       Status = -308010
	StatusStreamNotFound            Status = -308011
	StatusStreamNotLinked           Status = -308012
	StatusInvalidEndpointInterface  Status = -308013
	StatusEndpointNotCapable        Status = -308014
	StatusStreamNotEnabled          Status = -308015
	StatusInvalidStreamHandle       Status = -308016
	StatusInvalidAttributeType      Status = -308017
	StatusInvalidAttribute          Status = -308018
	StatusIncompatibleEndpoints     Status = -308019
	StatusPeerInterfaceNotSupported Status = -308020
	StatusInvalidEndpointHandle     Status = -308021
	StatusIncompatibleDataTypes     Status = -308022
	StatusInvalidEvent              Status = -308023
	StatusOperationTimedOut         Status = -308024
	StatusStreamWasClosed           Status = -308025
	StatusAttributeNotSettable      Status = -308026
	StatusEndpointsOnSameDevice     Status = -308027
	StatusEventNotSupported         Status = -308028
	StatusEventUnregistered         Status = -308029
	StatusInvalidP2PLinkPath        Status = -308030
	StatusSoftwareFault             Status = -308031
	StatusInvalidDataType           Status = -308032

	// StatusDataTypeSignMismatch is the only warning code.
	StatusDataTypeSignMismatch Status = 308000
)

var statusNames = map[Status]string{
	StatusSuccess:                   "Success",
	StatusMemoryFull:                "MemoryFull",
	StatusNotSupported:              "NotSupported",
	StatusIOOperationFailed:         "IOOperationFailed",
	StatusDeviceNotFound:            "DeviceNotFound",
	StatusBadPointer:                "BadPointer",
	StatusStreamResourcesInUse:      "StreamResourcesInUse",
	StatusEndpointAlreadyExists:     "EndpointAlreadyExists",
	StatusEndpointNotFound:          "EndpointNotFound",
	StatusEndpointsAreEquivalent:    "EndpointsAreEquivalent",
	StatusInvalidStreamID:           "InvalidStreamId",
	StatusDeviceAlreadyExists:       "DeviceAlreadyExists",
	StatusStreamNotFound:            "StreamNotFound",
	StatusStreamNotLinked:           "StreamNotLinked",
	StatusInvalidEndpointInterface:  "InvalidEndpointInterface",
	StatusEndpointNotCapable:        "EndpointNotCapable",
	StatusStreamNotEnabled:          "StreamNotEnabled",
	StatusInvalidStreamHandle:       "InvalidStreamHandle",
	StatusInvalidAttributeType:      "InvalidAttributeType",
	StatusInvalidAttribute:          "InvalidAttribute",
	StatusIncompatibleEndpoints:     "IncompatibleEndpoints",
	StatusPeerInterfaceNotSupported: "PeerInterfaceNotSupported",
	StatusInvalidEndpointHandle:     "InvalidEndpointHandle",
	StatusIncompatibleDataTypes:     "IncompatibleDataTypes",
	StatusInvalidEvent:              "InvalidEvent",
	StatusOperationTimedOut:         "OperationTimedOut",
	StatusStreamWasClosed:           "StreamWasClosed",
	StatusAttributeNotSettable:      "AttributeNotSettable",
	StatusEndpointsOnSameDevice:     "EndpointsOnSameDevice",
	StatusEventNotSupported:         "EventNotSupported",
	StatusEventUnregistered:         "EventUnregistered",
	StatusInvalidP2PLinkPath:        "InvalidP2PLinkPath",
	StatusSoftwareFault:             "SoftwareFault",
	StatusInvalidDataType:           "InvalidDataType",
	StatusDataTypeSignMismatch:      "DataTypeSignMismatch",
}

// StatusNames returns a copy of the code to name table.
func StatusNames() map[Status]string {
	out := make(map[Status]string, len(statusNames))
	for k, v := range statusNames {
		out[k] = v
	}
	return out
}

// Known reports whether s is part of the driver's status table.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// String returns the symbolic name of s, or "(unknown code N)".
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "(unknown code " + strconv.Itoa(int(s)) + ")"
}

// IsSuccess reports whether s is exactly StatusSuccess.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// IsWarning reports whether s is a non-fatal (positive) code.
func (s Status) IsWarning() bool { return s > 0 }

// IsError reports whether s is a fatal (negative) code.
func (s Status) IsError() bool { return s < 0 }

// Severity classifies a status code.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityWarning
	SeverityError
)

func (v Severity) String() string {
	switch v {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "severity(" + strconv.Itoa(int(v)) + ")"
}

// Severity returns the severity class of s.
func (s Status) Severity() Severity {
	switch {
	case s < 0:
		return SeverityError
	case s > 0:
		return SeverityWarning
	}
	return SeveritySuccess
}

// Err returns s as an error, or nil for StatusSuccess. The result has no
// operation attached and is meant for errors.Is comparisons.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError is returned when a native call reports a nonzero status.
type StatusError struct {
	// Op names the driver operation, e.g. "enable stream".
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	var detail string
	if e.Status.Known() {
		detail = fmt.Sprintf("%s (%d)", e.Status, int32(e.Status))
	} else {
		detail = e.Status.String()
	}
	if e.Op == "" {
		return "nip2p: " + detail
	}
	return "nip2p: " + e.Op + ": " + detail
}

// Warning reports whether the failing status was the warning code.
func (e *StatusError) Warning() bool { return e.Status.IsWarning() }

// Is matches any *StatusError carrying the same status, ignoring Op.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}

// StatusOf extracts the driver status from err.
func StatusOf(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return StatusSuccess, false
}

// check converts a driver status into an error. Warnings are not suppressed.
func check(op string, s Status) error {
	if s == StatusSuccess {
		return nil
	}
	return &StatusError{Op: op, Status: s}
}
