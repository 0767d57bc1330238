package p2p

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNamesMatchDriverTable(t *testing.T) {
	want := map[Status]string{
		0:       "Success",
		-308000: "MemoryFull",
		-308001: "NotSupported",
		-308002: "IOOperationFailed",
		-308003: "DeviceNotFound",
		-308004: "BadPointer",
		-308005: "StreamResourcesInUse",
		-308006: "EndpointAlreadyExists",
		-308007: "EndpointNotFound",
		-308008: "EndpointsAreEquivalent",
		-308009: "InvalidStreamId",
		-308010: "DeviceAlreadyExists",
		-308011: "StreamNotFound",
		-308012: "StreamNotLinked",
		-308013: "InvalidEndpointInterface",
		-308014: "EndpointNotCapable",
		-308015: "StreamNotEnabled",
		-308016: "InvalidStreamHandle",
		-308017: "InvalidAttributeType",
		-308018: "InvalidAttribute",
		-308019: "IncompatibleEndpoints",
		-308020: "PeerInterfaceNotSupported",
		-308021: "InvalidEndpointHandle",
		-308022: "IncompatibleDataTypes",
		-308023: "InvalidEvent",
		-308024: "OperationTimedOut",
		-308025: "StreamWasClosed",
		-308026: "AttributeNotSettable",
		-308027: "EndpointsOnSameDevice",
		-308028: "EventNotSupported",
		-308029: "EventUnregistered",
		-308030: "InvalidP2PLinkPath",
		-308031: "SoftwareFault",
		-308032: "InvalidDataType",
		308000:  "DataTypeSignMismatch",
	}
	assert.Equal(t, want, StatusNames())
	for code, name := range want {
		assert.Equal(t, name, code.String())
		assert.True(t, code.Known())
	}
}

func TestStatusNamesIsACopy(t *testing.T) {
	names := StatusNames()
	names[StatusMemoryFull] = "changed"
	assert.Equal(t, "MemoryFull", StatusMemoryFull.String())
}

func TestUnknownStatus(t *testing.T) {
	for _, code := range []Status{1, -1, -308033, 308001, 42} {
		assert.Equal(t, fmt.Sprintf("(unknown code %d)", code), code.String())
		assert.False(t, code.Known())
	}
}

func TestStatusSeverity(t *testing.T) {
	assert.Equal(t, SeveritySuccess, StatusSuccess.Severity())
	assert.True(t, StatusSuccess.IsSuccess())
	assert.Equal(t, SeverityWarning, StatusDataTypeSignMismatch.Severity())
	assert.True(t, StatusDataTypeSignMismatch.IsWarning())
	assert.False(t, StatusDataTypeSignMismatch.IsError())
	for code := range StatusNames() {
		if code < 0 {
			assert.Equal(t, SeverityError, code.Severity(), code.String())
		}
	}
	assert.Equal(t, "warning", SeverityWarning.String())
}

func TestStatusErrorRendering(t *testing.T) {
	err := check("enable stream", StatusStreamNotLinked)
	require.Error(t, err)
	assert.Equal(t, "nip2p: enable stream: StreamNotLinked (-308012)", err.Error())

	err = check("link stream", Status(-5))
	assert.Equal(t, "nip2p: link stream: (unknown code -5)", err.Error())

	assert.Equal(t, "nip2p: InvalidEvent (-308023)", StatusInvalidEvent.Err().Error())
	assert.NoError(t, StatusSuccess.Err())
	assert.NoError(t, check("link stream", StatusSuccess))
}

func TestWarningIsNotSuppressed(t *testing.T) {
	err := check("create and link stream", StatusDataTypeSignMismatch)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Warning())
}

func TestStatusErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", check("disable stream", StatusStreamNotFound))
	assert.ErrorIs(t, err, StatusStreamNotFound.Err())
	assert.False(t, errors.Is(err, StatusMemoryFull.Err()))

	code, ok := StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, StatusStreamNotFound, code)

	_, ok = StatusOf(errors.New("plain"))
	assert.False(t, ok)
}
