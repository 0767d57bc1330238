// Package poll waits for an asynchronous condition by re-checking it at a fixed
// interval until it holds or a wait budget runs out.
//
// The condition is always evaluated before the deadline is checked, so a
// condition that is already true never times out.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout  = 5000 * time.Millisecond
	DefaultInterval = 5 * time.Millisecond
	DefaultMessage  = "condition was not met within the time limit"
)

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("poll: timed out")

var errNotYet = errors.New("poll: condition not met")

// TimeoutError is returned when the wait budget elapses before the condition holds.
type TimeoutError struct {
	Msg    string
	Waited time.Duration
}

func (e *TimeoutError) Error() string { return e.Msg }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Condition reports whether the awaited state has been reached. A non-nil
// error aborts the wait and is returned as is.
type Condition func() (bool, error)

// Until evaluates cond every interval until it returns true or total has
// elapsed. On timeout it returns a *TimeoutError carrying msg.
func Until(cond Condition, total, interval time.Duration, msg string) error {
	return UntilContext(context.Background(), cond, total, interval, msg)
}

// UntilContext is Until with a context that can abandon the wait early.
func UntilContext(ctx context.Context, cond Condition, total, interval time.Duration, msg string) error {
	if msg == "" {
		msg = DefaultMessage
	}
	b := &deadlineBackOff{
		interval: interval,
		total:    total,
		clock:    backoff.SystemClock,
	}
	err := backoff.Retry(func() error {
		ok, err := cond()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if errors.Is(err, errNotYet) {
		return &TimeoutError{Msg: msg, Waited: b.elapsed()}
	}
	return err
}

// deadlineBackOff hands out a constant interval until more than total has
// passed since Reset.
type deadlineBackOff struct {
	interval time.Duration
	total    time.Duration
	clock    backoff.Clock
	start    time.Time
}

func (b *deadlineBackOff) Reset() { b.start = b.clock.Now() }

func (b *deadlineBackOff) elapsed() time.Duration { return b.clock.Now().Sub(b.start) }

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.elapsed() > b.total {
		return backoff.Stop
	}
	return b.interval
}
