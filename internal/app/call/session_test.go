package call

import (
	"testing"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestTracker_Full_Call(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	steps := []struct {
		from, to string
		kind     core.Kind
		want     State
	}{
		{"doc1", "pat1", core.KindNotifyIncomingCall, Ringing},
		{"doc1", "pat1", core.KindCallPrepare, Ringing},
		{"doc1", "pat1", core.KindUserCall, Negotiating},
		{"doc1", "pat1", core.KindICECandidate, Negotiating},
		{"pat1", "doc1", core.KindCallAccepted, Active},
		{"pat1", "doc1", core.KindICECandidate, Active},
		{"doc1", "pat1", core.KindNegoNeeded, Active},
		{"pat1", "doc1", core.KindNegoDone, Active},
		{"pat1", "doc1", core.KindCallEnded, Idle},
	}
	for _, s := range steps {
		req.NoError(tracker.Advance(idOf(s.from), idOf(s.to), s.kind), "step %s", s.kind)
		req.Equal(s.want, tracker.State("doc1", "pat1"), "after %s", s.kind)
	}
	req.Zero(tracker.Len())
}

func TestTracker_Rejects_Out_Of_Order(t *testing.T) {
	tests := []struct {
		name  string
		setup []core.Kind
		kind  core.Kind
	}{
		{"accept without call", nil, core.KindCallAccepted},
		{"end without call", nil, core.KindCallEnded},
		{"candidate before offer", []core.Kind{core.KindCallPrepare}, core.KindICECandidate},
		{"second offer", []core.Kind{core.KindUserCall}, core.KindUserCall},
		{"reject after accept", []core.Kind{core.KindUserCall, core.KindCallAccepted}, core.KindCallRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			tracker := NewTracker()
			for _, k := range tt.setup {
				req.NoError(tracker.Advance("doc1", "pat1", k))
			}
			before := tracker.State("doc1", "pat1")

			err := tracker.Advance("doc1", "pat1", tt.kind)

			req.ErrorIs(err, ErrOutOfOrder)
			req.Equal(before, tracker.State("doc1", "pat1"))
		})
	}
}

func TestTracker_Untracked_Kinds_Pass(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Advance("", "pat1", core.KindSignal))
	require.NoError(t, tracker.Advance("doc1", "pat1", core.KindNotify))
	require.Zero(t, tracker.Len())
}

func TestTracker_Unidentified_Sender(t *testing.T) {
	err := NewTracker().Advance("", "pat1", core.KindUserCall)
	require.ErrorIs(t, err, ErrOutOfOrder)
}

func TestTracker_Rejected_Call_Resets(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	req.NoError(tracker.Advance("doc1", "pat1", core.KindUserCall))

	req.NoError(tracker.Advance("pat1", "doc1", core.KindCallRejected))

	req.Equal(Idle, tracker.State("doc1", "pat1"))
	req.NoError(tracker.Advance("doc1", "pat1", core.KindUserCall))
}

func TestTracker_Forget(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	req.NoError(tracker.Advance("doc1", "pat1", core.KindUserCall))
	req.NoError(tracker.Advance("doc1", "pat2", core.KindUserCall))
	req.NoError(tracker.Advance("doc2", "pat3", core.KindUserCall))

	tracker.Forget("doc1")

	req.Equal(1, tracker.Len())
	req.Equal(Idle, tracker.State("doc1", "pat1"))
	req.Equal(Negotiating, tracker.State("pat3", "doc2"))
}

func idOf(s string) domain.UserID { return domain.UserID(s) }
