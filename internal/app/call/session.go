// Package call keeps an optional per-pair view of call progress so that
// out-of-order signaling can be refused. The relay works without it.
package call

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Idle State = iota
	Ringing
	Negotiating
	Active
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ringing:
		return "ringing"
	case Negotiating:
		return "negotiating"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

var ErrOutOfOrder = errors.New("call message out of order")

type stateSet uint8

func setOf(states ...State) stateSet {
	var s stateSet
	for _, st := range states {
		s |= 1 << st
	}
	return s
}

func (s stateSet) has(st State) bool { return s&(1<<st) != 0 }

// transition leaves the state unchanged when keep is set.
type transition struct {
	from stateSet
	to   State
	keep bool
}

var transitions = map[core.Kind]transition{
	core.KindCallPrepare:        {from: setOf(Idle, Ringing), to: Ringing},
	core.KindNotifyIncomingCall: {from: setOf(Idle, Ringing), to: Ringing},
	core.KindUserCall:           {from: setOf(Idle, Ringing), to: Negotiating},
	core.KindCallAccepted:       {from: setOf(Negotiating), to: Active},
	core.KindNegoNeeded:         {from: setOf(Negotiating, Active), keep: true},
	core.KindNegoDone:           {from: setOf(Negotiating, Active), keep: true},
	core.KindICECandidate:       {from: setOf(Negotiating, Active), keep: true},
	core.KindCallRejected:       {from: setOf(Ringing, Negotiating), to: Ended},
	core.KindCallEnded:          {from: setOf(Ringing, Negotiating, Active), to: Ended},
}

// pair is unordered: a call between doc1 and pat1 is the same session
// whichever side speaks.
type pair struct{ lo, hi domain.UserID }

func pairOf(a, b domain.UserID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{lo: a, hi: b}
}

// Tracker holds the state of every pair with a call in progress.
type Tracker struct {
	mu       sync.Mutex
	sessions map[pair]State
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[pair]State)}
}

// Advance applies kind to the (from, to) session. Kinds without a
// transition are not tracked and always pass.
func (t *Tracker) Advance(from, to domain.UserID, kind core.Kind) error {
	tr, tracked := transitions[kind]
	if !tracked {
		return nil
	}
	if from == "" {
		return fmt.Errorf("%w: %s from unidentified sender", ErrOutOfOrder, kind)
	}

	key := pairOf(from, to)
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.sessions[key]
	if !tr.from.has(cur) {
		return fmt.Errorf("%w: %s while %s", ErrOutOfOrder, kind, cur)
	}
	next := tr.to
	if tr.keep {
		next = cur
	}
	if next == Ended {
		delete(t.sessions, key)
	} else {
		t.sessions[key] = next
	}
	log.Debug().
		Str("module", "app.call").
		Str("kind", string(kind)).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("state", next.String()).
		Msg("advanced")
	return nil
}

// State returns the session state of a pair, Idle when none exists.
func (t *Tracker) State(a, b domain.UserID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[pairOf(a, b)]
}

// Forget drops every session uid takes part in.
func (t *Tracker) Forget(uid domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.sessions {
		if key.lo == uid || key.hi == uid {
			delete(t.sessions, key)
		}
	}
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
