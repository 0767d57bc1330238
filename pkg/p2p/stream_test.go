package p2p_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/nip2p-go/pkg/p2p"
	"github.com/srediag/nip2p-go/pkg/p2p/p2ptest"
	"github.com/srediag/nip2p-go/pkg/poll"
)

type StreamTestSuite struct {
	suite.Suite
	drv *p2ptest.Driver
}

func (s *StreamTestSuite) SetupTest() {
	s.drv = p2ptest.NewDriver()
}

func (s *StreamTestSuite) newStream(opts ...p2p.Option) *p2p.Stream {
	strm, err := p2p.NewStream(s.drv, 1, 2, opts...)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = strm.Destroy() })
	return strm
}

func (s *StreamTestSuite) TestCreateAndLinkEnabled() {
	strm := s.newStream()
	s.NotZero(strm.Handle())
	s.Equal(p2p.Endpoint(1), strm.Writer())
	s.Equal(p2p.Endpoint(2), strm.Reader())

	st, err := strm.State()
	s.Require().NoError(err)
	s.Equal(p2p.StateEnabled, st)
	s.NoError(strm.EnsureEnabled())
}

func (s *StreamTestSuite) TestCreateAndLinkDisabled() {
	strm := s.newStream(p2p.WithEnable(false))
	s.NoError(strm.EnsureDisabled())
}

func (s *StreamTestSuite) TestCreateRejectsBadEndpoints() {
	p2ptest.ExpectStatus(s.T(), p2p.StatusEndpointsAreEquivalent, func() error {
		_, err := p2p.NewStream(s.drv, 3, 3)
		return err
	})
	p2ptest.ExpectStatus(s.T(), p2p.StatusInvalidEndpointHandle, func() error {
		_, err := p2p.NewStream(s.drv, 0, 3)
		return err
	})

	s.newStream()
	p2ptest.ExpectStatus(s.T(), p2p.StatusEndpointAlreadyExists, func() error {
		_, err := p2p.NewStream(s.drv, 2, 5)
		return err
	})

	s.drv.Incompatible = func(w, r p2p.Endpoint) bool { return w == 7 }
	p2ptest.ExpectStatus(s.T(), p2p.StatusIncompatibleEndpoints, func() error {
		_, err := p2p.NewStream(s.drv, 7, 8)
		return err
	})
	s.Equal(1, s.drv.Live())
}

func (s *StreamTestSuite) TestCreateFailsWhenResourcesExhausted() {
	s.drv.MaxStreams = 1
	s.newStream()
	p2ptest.ExpectStatus(s.T(), p2p.StatusStreamResourcesInUse, func() error {
		_, err := p2p.NewStream(s.drv, 3, 4)
		return err
	})
}

func (s *StreamTestSuite) TestHalfCreatedStreamIsDestroyed() {
	s.drv.FailNext(p2ptest.OpCreateAndLink, p2p.StatusDataTypeSignMismatch)
	strm, err := p2p.NewStream(s.drv, 1, 2)
	s.Nil(strm)

	var se *p2p.StatusError
	s.Require().True(errors.As(err, &se))
	s.True(se.Warning())
	s.Equal(0, s.drv.Live())
	s.Equal(1, s.drv.CallCount(p2ptest.OpDestroy))
}

func (s *StreamTestSuite) TestToleratedWarning() {
	s.drv.FailNext(p2ptest.OpCreateAndLink, p2p.StatusDataTypeSignMismatch)
	strm := s.newStream(p2p.WithToleratedWarnings(p2p.StatusDataTypeSignMismatch, p2p.StatusSoftwareFault))
	s.NoError(strm.EnsureEnabled())

	s.drv.FailNext(p2ptest.OpEnable, p2p.StatusSoftwareFault)
	p2ptest.ExpectStatus(s.T(), p2p.StatusSoftwareFault, strm.Enable)
}

func (s *StreamTestSuite) TestRoundTrip() {
	strm, err := p2p.NewStream(s.drv, 1, 2, p2p.WithEnable(true))
	s.Require().NoError(err)
	s.Require().NoError(strm.Link())
	s.Require().NoError(strm.Enable())
	s.Require().NoError(strm.Disable())
	timedOut, err := strm.FlushAndDisable(250 * time.Millisecond)
	s.Require().NoError(err)
	s.False(timedOut)
	s.Require().NoError(strm.Destroy())
	s.Zero(strm.Handle())
	s.Require().NoError(strm.Destroy())
	s.Equal(1, s.drv.CallCount(p2ptest.OpDestroy))
	s.Equal(0, s.drv.Live())
}

func (s *StreamTestSuite) TestDestroyedStreamMakesNoDriverCalls() {
	strm := s.newStream()
	s.Require().NoError(strm.Close())
	calls := len(s.drv.Calls())

	p2ptest.ExpectStatus(s.T(), p2p.StatusInvalidStreamHandle, strm.Link)
	p2ptest.ExpectStatus(s.T(), p2p.StatusInvalidStreamHandle, func() error {
		_, err := strm.State()
		return err
	})
	p2ptest.ExpectStatus(s.T(), p2p.StatusInvalidStreamHandle, func() error {
		_, err := strm.FlushAndDisable(time.Millisecond)
		return err
	})
	s.NoError(strm.Destroy())
	s.Len(s.drv.Calls(), calls)
}

func (s *StreamTestSuite) TestDestroyFailureKeepsHandle() {
	strm := s.newStream()
	h := strm.Handle()
	s.drv.FailNext(p2ptest.OpDestroy, p2p.StatusSoftwareFault)
	p2ptest.ExpectStatus(s.T(), p2p.StatusSoftwareFault, strm.Destroy)
	s.Equal(h, strm.Handle())

	s.Require().NoError(strm.Destroy())
	s.Zero(strm.Handle())
}

func (s *StreamTestSuite) TestLinkUnlink() {
	strm := s.newStream()
	s.Require().NoError(strm.Unlink())
	s.NoError(strm.EnsureUnlinked())
	p2ptest.ExpectStatus(s.T(), p2p.StatusStreamNotLinked, strm.Enable)
	p2ptest.ExpectStatus(s.T(), p2p.StatusStreamNotLinked, strm.Disable)
	s.Require().NoError(strm.Link())
	s.NoError(strm.EnsureDisabled())
	s.Require().NoError(strm.Enable())
	s.NoError(strm.EnsureEnabled())
}

func (s *StreamTestSuite) TestEnsureStateMismatch() {
	strm := s.newStream()
	p2ptest.ExpectState(s.T(), p2p.StateFlushing, p2p.StateEnabled, strm.EnsureFlushing)

	err := strm.EnsurePaused()
	var se *p2p.StateError
	s.Require().True(errors.As(err, &se))
	s.Equal(p2p.StatePaused, se.Expected)
	s.Equal(p2p.StateEnabled, se.Actual)
	_, isDriverErr := p2p.StatusOf(err)
	s.False(isDriverErr)
}

func (s *StreamTestSuite) TestEnsureEveryState() {
	strm := s.newStream()
	ensure := map[p2p.State]func() error{
		p2p.StateUnlinked:      strm.EnsureUnlinked,
		p2p.StateDisabled:      strm.EnsureDisabled,
		p2p.StateEnabled:       strm.EnsureEnabled,
		p2p.StateFlushing:      strm.EnsureFlushing,
		p2p.StatePaused:        strm.EnsurePaused,
		p2p.StateLinkValidated: strm.EnsureLinkValidated,
	}
	for _, st := range p2p.States() {
		s.drv.SetState(strm.Handle(), st)
		s.NoError(ensure[st](), st.String())
		s.NoError(strm.EnsureState(st))
		for _, other := range p2p.States() {
			if other != st {
				p2ptest.ExpectState(s.T(), other, st, ensure[other])
			}
		}
	}
}

func (s *StreamTestSuite) TestEnsureStateReportsDriverError() {
	strm := s.newStream()
	s.drv.FailNext(p2ptest.OpGetAttribute, p2p.StatusIOOperationFailed)
	p2ptest.ExpectStatus(s.T(), p2p.StatusIOOperationFailed, strm.EnsureEnabled)
}

func (s *StreamTestSuite) TestStateIsQueriedLive() {
	strm := s.newStream()
	s.NoError(strm.EnsureEnabled())
	s.drv.SetState(strm.Handle(), p2p.StatePaused)
	s.NoError(strm.EnsurePaused())
	s.Equal(2, s.drv.CallCount(p2ptest.OpGetAttribute))
}

func (s *StreamTestSuite) TestFlushAndDisableTimesOutWithoutError() {
	s.drv.FlushDuration = time.Hour
	strm := s.newStream()
	timedOut, err := strm.FlushAndDisable(10 * time.Millisecond)
	s.Require().NoError(err)
	s.True(timedOut)
	s.NoError(strm.EnsureFlushing())
}

func (s *StreamTestSuite) TestRepeatedFlushKeepsTimingOutUntilDrained() {
	s.drv.FlushDuration = time.Hour
	strm := s.newStream()
	_, err := strm.FlushAndDisable(time.Millisecond)
	s.Require().NoError(err)

	timedOut, err := strm.FlushAndDisable(time.Millisecond)
	s.Require().NoError(err)
	s.True(timedOut)
	s.NoError(strm.EnsureFlushing())
}

func (s *StreamTestSuite) TestFlushCompletesOnHardwareTime() {
	s.drv.FlushDuration = 30 * time.Millisecond
	strm := s.newStream()
	timedOut, err := strm.FlushAndDisable(time.Millisecond)
	s.Require().NoError(err)
	s.True(timedOut)
	s.Require().NoError(strm.WaitForState(p2p.StateDisabled, 2*time.Second, 5*time.Millisecond))
}

func (s *StreamTestSuite) TestFlushAndDisableDriverError() {
	strm := s.newStream()
	s.drv.FailNext(p2ptest.OpFlushAndDisable, p2p.StatusSoftwareFault)
	timedOut, err := strm.FlushAndDisable(250 * time.Millisecond)
	s.False(timedOut)
	s.ErrorIs(err, p2p.StatusSoftwareFault.Err())

	s.Require().NoError(strm.Unlink())
	p2ptest.ExpectStatus(s.T(), p2p.StatusStreamNotLinked, func() error {
		_, err := strm.FlushAndDisable(250 * time.Millisecond)
		return err
	})
}

func (s *StreamTestSuite) TestEnsureFlushingSoon() {
	strm := s.newStream()
	h := strm.Handle()
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.drv.SetState(h, p2p.StateFlushing)
	}()
	s.NoError(strm.EnsureFlushingSoon())
}

func (s *StreamTestSuite) TestEnsureFlushingSoonTimesOut() {
	config := p2p.DefaultConfig()
	config.FlushingTimeout = 20 * time.Millisecond
	strm := s.newStream(p2p.WithConfig(config))

	err := strm.EnsureFlushingSoon()
	var te *poll.TimeoutError
	s.Require().True(errors.As(err, &te))
	s.Contains(te.Error(), "'flushing'")
	s.ErrorIs(err, poll.ErrTimeout)
}

func (s *StreamTestSuite) TestWaitForEvent() {
	strm := s.newStream()
	h := strm.Handle()
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.drv.Signal(h, 9)
		s.drv.Signal(h, 1)
	}()
	s.NoError(strm.WaitForEvent(1, time.Second))
}

func (s *StreamTestSuite) TestWaitForEventTimeoutIsAnError() {
	strm := s.newStream()
	p2ptest.ExpectStatus(s.T(), p2p.StatusOperationTimedOut, func() error {
		return strm.WaitForEvent(1, 10*time.Millisecond)
	})
}

func (s *StreamTestSuite) TestAttributes() {
	strm := s.newStream()
	s.drv.SetAttribute(strm.Handle(), p2p.AttributeReaderNumElementsForReading, 42)
	v, err := strm.Attribute(p2p.AttributeReaderNumElementsForReading)
	s.Require().NoError(err)
	s.Equal(uint32(42), v)

	p2ptest.ExpectStatus(s.T(), p2p.StatusInvalidAttribute, func() error {
		_, err := strm.Attribute(0x30000000)
		return err
	})
}

func (s *StreamTestSuite) TestInvalidConfigIsRejected() {
	config := p2p.DefaultConfig()
	config.FlushingInterval = 0
	_, err := p2p.NewStream(s.drv, 1, 2, p2p.WithConfig(config))
	s.Error(err)
	s.Equal(0, s.drv.CallCount(p2ptest.OpCreateAndLink))
}

func TestStreamTestSuite(t *testing.T) {
	suite.Run(t, new(StreamTestSuite))
}
