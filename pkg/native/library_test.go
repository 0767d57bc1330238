package native

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/nip2p-go/pkg/p2p"
)

func TestSymbolNames(t *testing.T) {
	for i, name := range symbolNames {
		assert.NotEmpty(t, name, "symbol %d", i)
		assert.True(t, strings.HasPrefix(name, "nip2p"), name)
	}
	assert.Equal(t, "nip2pGetAttribute", symbolNames[symGetAttribute])
}

func TestAttributeArgs(t *testing.T) {
	for _, attr := range []p2p.Attribute{
		p2p.AttributeStreamState,
		p2p.AttributeWriterOverflow,
		p2p.AttributeReaderNumElementsForReading,
	} {
		reserved, inout := attributeArgs(uint32(attr))
		assert.Zero(t, reserved, attr.String())
		assert.Equal(t, uint32(attr), inout, attr.String())
	}
}

func TestOpenMissingLibrary(t *testing.T) {
	lib, err := Open(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Nil(t, lib)
}

func TestClosedLibraryFailsCalls(t *testing.T) {
	l := &Library{path: "closed"}

	h, st := l.CreateAndLinkStream(1, 2, true)
	assert.Zero(t, h)
	assert.Equal(t, p2p.StatusSoftwareFault, st)
	assert.Equal(t, p2p.StatusSoftwareFault, l.DestroyStream(7))
	assert.Equal(t, p2p.StatusSoftwareFault, l.EnableStream(7))
	timedOut, st := l.FlushAndDisableStream(7, 10)
	assert.False(t, timedOut)
	assert.Equal(t, p2p.StatusSoftwareFault, st)
	assert.Equal(t, p2p.StatusSoftwareFault, l.WaitForStreamEvent(7, 1, 10))
	_, st = l.GetAttribute(7, p2p.AttributeStreamState)
	assert.Equal(t, p2p.StatusSoftwareFault, st)
	assert.NoError(t, l.Close())
}
