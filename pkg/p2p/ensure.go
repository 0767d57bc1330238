package p2p

import (
	"strings"
	"time"

	"github.com/srediag/nip2p-go/pkg/poll"
)

// EnsureState fails with a *StateError when the live state is not expected.
// Driver failures while reading the state are returned as *StatusError.
func (s *Stream) EnsureState(expected State) error {
	actual, err := s.State()
	if err != nil {
		return err
	}
	if actual != expected {
		return &StateError{Expected: expected, Actual: actual}
	}
	return nil
}

func (s *Stream) EnsureUnlinked() error      { return s.EnsureState(StateUnlinked) }
func (s *Stream) EnsureDisabled() error      { return s.EnsureState(StateDisabled) }
func (s *Stream) EnsureEnabled() error       { return s.EnsureState(StateEnabled) }
func (s *Stream) EnsureFlushing() error      { return s.EnsureState(StateFlushing) }
func (s *Stream) EnsurePaused() error        { return s.EnsureState(StatePaused) }
func (s *Stream) EnsureLinkValidated() error { return s.EnsureState(StateLinkValidated) }

// WaitForState polls the live state every interval until it equals expected
// or timeout elapses, in which case a *poll.TimeoutError is returned.
func (s *Stream) WaitForState(expected State, timeout, interval time.Duration) error {
	msg := "stream failed to enter the '" + strings.ToLower(expected.String()) + "' state"
	return poll.UntilContext(s.ctx, func() (bool, error) {
		st, err := s.State()
		if err != nil {
			return false, err
		}
		return st == expected, nil
	}, timeout, interval, msg)
}

// EnsureFlushingSoon waits (5s, polling every 5ms by default) for the stream
// to report StateFlushing.
func (s *Stream) EnsureFlushingSoon() error {
	return s.WaitForState(StateFlushing, s.cfg.FlushingTimeout, s.cfg.FlushingInterval)
}
