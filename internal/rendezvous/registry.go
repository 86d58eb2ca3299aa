package rendezvous

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	// ErrInvalidDeadline is returned when Join is called with a
	// non-positive deadline. A zero or negative deadline is a caller
	// programming error and fails fast rather than blocking forever.
	ErrInvalidDeadline = errors.New("rendezvous: deadline must be positive")

	// ErrRendezvousFull is returned when a third party joins an entry
	// whose two slots are already taken. Entries are retired synchronously
	// at their terminal transition, so this only fires when a caller
	// resolved an entry just before retirement removed it.
	ErrRendezvousFull = errors.New("rendezvous: both parties already arrived")
)

// Registry is the single point of truth for which wait IDs are currently
// awaiting a second party. It is safe for concurrent use; contention on one
// ID never blocks operations on another.
type Registry struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*Point
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the wall clock used for deadline timers. Tests use a
// mock clock to exercise the timeout path without real waiting.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// NewRegistry constructs an empty registry backed by the real clock.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:   clock.New(),
		entries: make(map[string]*Point),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join arrives at the rendezvous for id. The first arrival blocks until a
// second arrival releases it or the deadline elapses; the second arrival
// returns immediately. Exactly one of the two parties observes
// FirstPartySuccess and the other SecondPartySuccess. A lone caller observes
// TimedOut after roughly deadline, as does a second party whose signal lost
// the race against an already-expired deadline.
//
// Once any caller observes a terminal outcome the entry is gone from the
// registry, and a subsequent Join with the same id starts a brand-new
// rendezvous.
func (r *Registry) Join(ctx context.Context, id string, deadline time.Duration) (Outcome, error) {
	if deadline <= 0 {
		return OutcomeNone, ErrInvalidDeadline
	}

	p := r.resolve(id)
	switch prev := p.arrivals.Add(1) - 1; prev {
	case 0:
		return r.waitForSecond(ctx, p, deadline)
	case 1:
		return r.releaseFirst(p), nil
	default:
		return OutcomeNone, ErrRendezvousFull
	}
}

// Len reports the number of in-flight rendezvous entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// resolve returns the live entry for id, creating one if absent. Two
// concurrent calls with the same id always observe the same Point; this is
// what lets two independent callers find each other.
func (r *Registry) resolve(id string) *Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.entries[id]; ok {
		return p
	}
	p := newPoint(id, r.clock.Now())
	r.entries[id] = p
	return p
}

// retire removes the mapping for p's id if and only if the stored entry is
// exactly p. A no-op otherwise, so retiring an already-replaced entry never
// removes an unrelated newer rendezvous for a reused id.
func (r *Registry) retire(p *Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.entries[p.id]; ok && cur == p {
		delete(r.entries, p.id)
	}
}

// waitForSecond is the first party's path: block until the wake channel is
// closed, the deadline elapses, or the caller's context is canceled. The CAS
// on p.state is the commit point for the wake-versus-timer race; whichever
// path loses the CAS yields to the winner's outcome, so a signal that lands
// before the expiry is observed can never be turned into a timeout.
func (r *Registry) waitForSecond(ctx context.Context, p *Point, deadline time.Duration) (Outcome, error) {
	timer := r.clock.Timer(deadline)
	defer timer.Stop()

	select {
	case <-p.wake:
		// The second party committed the success transition and retired
		// the entry before closing the channel.
		return FirstPartySuccess, nil

	case <-timer.C:
		if p.state.CompareAndSwap(statePending, stateTimedOut) {
			r.retire(p)
			return TimedOut, nil
		}
		// The second party won the race against the timer.
		return FirstPartySuccess, nil

	case <-ctx.Done():
		if p.state.CompareAndSwap(statePending, stateTimedOut) {
			r.retire(p)
			return OutcomeNone, ctx.Err()
		}
		return FirstPartySuccess, nil
	}
}

// releaseFirst is the second party's path. Committing the success transition
// and closing the wake channel happen strictly in that order: a first party
// woken by the channel always finds the entry already terminal and retired.
func (r *Registry) releaseFirst(p *Point) Outcome {
	if p.state.CompareAndSwap(statePending, stateSucceeded) {
		r.retire(p)
		close(p.wake)
		return SecondPartySuccess
	}
	// The deadline fired before this signal could land. The first party
	// already retired the entry; this caller gets no credit for an
	// expired rendezvous.
	return TimedOut
}
