package p2ptest

import (
	"errors"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/nip2p-go/pkg/p2p"
)

type tHelper interface {
	Helper()
}

// ExpectStatus runs fn and reports a failure on t unless fn returns a
// *p2p.StatusError carrying want.
//
//	p2ptest.ExpectStatus(t, p2p.StatusStreamNotLinked, func() error {
//		return s.Enable()
//	})
func ExpectStatus(t assert.TestingT, want p2p.Status, fn func() error) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	err := fn()
	if err == nil {
		return assert.Fail(t, "Expected error: "+want.String()+", but no error returned")
	}
	var se *p2p.StatusError
	if !errors.As(err, &se) {
		return assert.Fail(t, "Expected error: "+want.String()+", but got error: "+err.Error())
	}
	if se.Status != want {
		return assert.Fail(t, "Expected driver status: "+want.String()+", but got: "+se.Error())
	}
	return true
}

// ExpectState runs fn and reports a failure on t unless fn returns a
// *p2p.StateError with the given expected and actual states.
func ExpectState(t assert.TestingT, expected, actual p2p.State, fn func() error) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	err := fn()
	var se *p2p.StateError
	if !errors.As(err, &se) {
		return assert.Fail(t, "Expected state mismatch "+expected.String()+"/"+actual.String()+", but got: "+errString(err))
	}
	ok := assert.Equal(t, expected, se.Expected, "expected state")
	return assert.Equal(t, actual, se.Actual, "actual state") && ok
}

func errString(err error) string {
	if err == nil {
		return "no error"
	}
	return err.Error()
}
