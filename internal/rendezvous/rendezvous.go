// Package rendezvous implements a keyed two-party rendezvous barrier with a
// bounded wait. Two callers presenting the same wait ID block until both have
// arrived; a lone caller is released with a timeout outcome once its deadline
// elapses.
package rendezvous

import (
	"sync/atomic"
	"time"
)

// Outcome is the result of a Join call.
type Outcome int

const (
	// OutcomeNone is the zero value, returned alongside a non-nil error.
	OutcomeNone Outcome = iota

	// FirstPartySuccess means the caller arrived first and a second party
	// showed up before the deadline.
	FirstPartySuccess

	// SecondPartySuccess means the caller arrived second and released a
	// waiting first party.
	SecondPartySuccess

	// TimedOut means no rendezvous happened: either the caller waited out
	// its full deadline alone, or it arrived after the deadline had
	// already expired (a missed rendezvous).
	TimedOut
)

// String returns a short name for the outcome, suitable for log fields and
// metric labels.
func (o Outcome) String() string {
	switch o {
	case FirstPartySuccess:
		return "first_party_success"
	case SecondPartySuccess:
		return "second_party_success"
	case TimedOut:
		return "timed_out"
	default:
		return "none"
	}
}

// Success reports whether the outcome represents a completed rendezvous.
func (o Outcome) Success() bool {
	return o == FirstPartySuccess || o == SecondPartySuccess
}

// Point states. The state field transitions exactly once, from pending to one
// of the terminal values, via compare-and-swap.
const (
	statePending int32 = iota
	stateSucceeded
	stateTimedOut
)

// Point is the per-identifier rendezvous entry. It is created by the registry
// on the first Join for an ID and removed the instant its state becomes
// terminal. Callers never hold a Point beyond the Join call that produced a
// terminal outcome.
type Point struct {
	id string

	// arrivals counts Join calls on this entry. The pre-increment value
	// decides the caller's role: 0 is the first party, 1 the second.
	arrivals atomic.Int32

	// state holds statePending until exactly one of the wake path or the
	// deadline path wins the CAS to a terminal value.
	state atomic.Int32

	// wake is closed by the second party after it commits the success
	// transition. Single-use: only the arrival that observed a
	// pre-increment value of 1 may close it.
	wake chan struct{}

	createdAt time.Time
}

func newPoint(id string, now time.Time) *Point {
	return &Point{
		id:        id,
		wake:      make(chan struct{}),
		createdAt: now,
	}
}

// ID returns the identifier this point was created for.
func (p *Point) ID() string { return p.id }

// CreatedAt returns the time the first party created this point.
func (p *Point) CreatedAt() time.Time { return p.createdAt }
