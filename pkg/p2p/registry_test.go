package p2p_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/nip2p-go/pkg/p2p"
	"github.com/srediag/nip2p-go/pkg/p2p/p2ptest"
)

type fifo struct {
	ep  p2p.Endpoint
	err error
}

func (f fifo) PeerToPeerEndpoint() (p2p.Endpoint, error) { return f.ep, f.err }

type RegistryTestSuite struct {
	suite.Suite
	drv *p2ptest.Driver
	reg *p2p.Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.drv = p2ptest.NewDriver()
	s.reg = p2p.NewRegistry(s.drv)
}

func (s *RegistryTestSuite) TestOpenTracksUntilDestroy() {
	a, err := s.reg.Open(1, 2)
	s.Require().NoError(err)
	b, err := s.reg.Open(3, 4, p2p.WithEnable(false))
	s.Require().NoError(err)
	s.Equal(2, s.reg.Len())

	got, ok := s.reg.Get(a.Handle())
	s.True(ok)
	s.Same(a, got)
	s.Equal([]*p2p.Stream{a, b}, s.reg.Streams())

	s.Require().NoError(a.Destroy())
	s.Equal(1, s.reg.Len())
	_, ok = s.reg.Get(a.Handle())
	s.False(ok)
}

func (s *RegistryTestSuite) TestOpenFailureIsNotTracked() {
	_, err := s.reg.Open(1, 1)
	s.Error(err)
	s.Equal(0, s.reg.Len())
}

func (s *RegistryTestSuite) TestConnect() {
	strm, err := s.reg.Connect(fifo{ep: 10}, fifo{ep: 11})
	s.Require().NoError(err)
	s.Equal(p2p.Endpoint(10), strm.Writer())
	s.Equal(p2p.Endpoint(11), strm.Reader())

	boom := errors.New("fifo not configured for peer-to-peer")
	_, err = s.reg.Connect(fifo{ep: 12}, fifo{err: boom})
	s.ErrorIs(err, boom)
	s.Contains(err.Error(), "reader endpoint")
	s.Equal(1, s.reg.Len())
}

func (s *RegistryTestSuite) TestDestroyAll() {
	_, err := s.reg.Open(1, 2)
	s.Require().NoError(err)
	_, err = s.reg.Open(3, 4, p2p.WithEnable(false))
	s.Require().NoError(err)

	s.Require().NoError(s.reg.DestroyAll())
	s.Equal(0, s.reg.Len())
	s.Equal(0, s.drv.Live())
	s.Equal(1, s.drv.CallCount(p2ptest.OpFlushAndDisable))
}

func (s *RegistryTestSuite) TestDestroyAllAggregatesFailures() {
	a, err := s.reg.Open(1, 2)
	s.Require().NoError(err)
	_, err = s.reg.Open(3, 4)
	s.Require().NoError(err)

	s.drv.FailNext(p2ptest.OpFlushAndDisable, p2p.StatusSoftwareFault)
	s.drv.FailNext(p2ptest.OpDestroy, p2p.StatusStreamWasClosed)
	err = s.reg.DestroyAll()
	s.Require().Error(err)
	s.ErrorIs(err, p2p.StatusSoftwareFault.Err())
	s.ErrorIs(err, p2p.StatusStreamWasClosed.Err())

	s.Equal(1, s.reg.Len())
	_, ok := s.reg.Get(a.Handle())
	s.True(ok)
	s.Require().NoError(s.reg.DestroyAll())
	s.Equal(0, s.reg.Len())
}

func (s *RegistryTestSuite) TestDestroyAllWithSlowFlush() {
	s.drv.FlushDuration = time.Hour
	config := p2p.DefaultConfig()
	config.FlushTimeout = time.Millisecond
	reg := p2p.NewRegistry(s.drv, p2p.WithConfig(config))
	_, err := reg.Open(1, 2)
	s.Require().NoError(err)
	s.Require().NoError(reg.DestroyAll())
	s.Equal(0, s.drv.Live())
}

func (s *RegistryTestSuite) TestCollector() {
	a, err := s.reg.Open(1, 2)
	s.Require().NoError(err)
	_, err = s.reg.Open(3, 4, p2p.WithEnable(false))
	s.Require().NoError(err)
	s.drv.SetState(a.Handle(), p2p.StatePaused)

	promReg := prometheus.NewPedanticRegistry()
	s.Require().NoError(promReg.Register(s.reg.Collector()))

	expected := `
# HELP nip2p_open_streams Number of P2P streams created and not yet destroyed.
# TYPE nip2p_open_streams gauge
nip2p_open_streams 2
# HELP nip2p_stream_state Driver-reported state code of each live P2P stream.
# TYPE nip2p_stream_state gauge
nip2p_stream_state{handle="1",reader="2",state="Paused",writer="1"} 4
nip2p_stream_state{handle="2",reader="4",state="Disabled",writer="3"} 1
`
	s.NoError(testutil.GatherAndCompare(promReg, strings.NewReader(expected)))
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
