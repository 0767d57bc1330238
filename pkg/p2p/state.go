package p2p

import (
	"strconv"
	"strings"
)

// State is the driver-side state of a stream. It is always read from the
// driver because the hardware can change it at any time (e.g. when a flush completes).
type State uint32

const (
	StateUnlinked      State = 0
	StateDisabled      State = 1
	StateEnabled       State = 2
	StateFlushing      State = 3
	StatePaused        State = 4
	StateLinkValidated State = 5
)

var stateNames = [...]string{
	StateUnlinked:      "Unlinked",
	StateDisabled:      "Disabled",
	StateEnabled:       "Enabled",
	StateFlushing:      "Flushing",
	StatePaused:        "Paused",
	StateLinkValidated: "LinkValidated",
}

// States returns every defined state in code order.
func States() []State {
	return []State{StateUnlinked, StateDisabled, StateEnabled, StateFlushing, StatePaused, StateLinkValidated}
}

// Valid reports whether s is one of the six defined states.
func (s State) Valid() bool { return int(s) < len(stateNames) }

// String returns the short name of s, or "(unknown state N)".
func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return "(unknown state " + strconv.FormatUint(uint64(s), 10) + ")"
}

// Name returns the driver's constant name for s, e.g. "StreamStateFlushing".
func (s State) Name() string {
	if !s.Valid() {
		return s.String()
	}
	return "StreamState" + stateNames[s]
}

// ParseState looks a state up by short or constant name, ignoring case.
func ParseState(name string) (State, bool) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "streamstate")
	for i, n := range stateNames {
		if strings.ToLower(n) == name {
			return State(i), true
		}
	}
	return 0, false
}

// StateError is a protocol assertion failure: the live stream state did not
// match the state the caller expected.
type StateError struct {
	Expected State
	Actual   State
}

func (e *StateError) Error() string {
	return "expected state " + e.Expected.String() + ", but state is actually " + e.Actual.String()
}
