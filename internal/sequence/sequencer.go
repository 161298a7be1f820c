// Package sequence supplies globally unique, monotonically increasing
// identifiers. The venue treats the sequencer as a fallible external
// collaborator; a remote implementation may refuse a request under
// flow control, and callers must abort whatever needed the identity.
package sequence

import (
	"errors"
	"sync/atomic"
)

// ErrFlowControl is the business failure a sequencer returns when it
// is shedding load. It never accompanies a usable identifier.
var ErrFlowControl = errors.New("sequencer flow control")

// Local is an in-process sequencer. It is never under flow control.
type Local struct {
	next atomic.Uint64
}

// NewLocal creates a sequencer that issues identifiers above start.
func NewLocal(start uint64) *Local {
	s := &Local{}
	s.next.Store(start)
	return s
}

// NewSequence returns the next identifier.
func (s *Local) NewSequence() (uint64, error) {
	return s.next.Add(1), nil
}

// Current returns the last issued identifier.
func (s *Local) Current() uint64 {
	return s.next.Load()
}
