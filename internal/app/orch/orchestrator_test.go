package orch

import (
	"testing"

	"github.com/dkeye/telemed/internal/app"
	"github.com/dkeye/telemed/internal/app/call"
	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/core/coretest"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_Identify_Announces_Online(t *testing.T) {
	req := require.New(t)
	o := New(false)
	a := coretest.NewConn("A")
	b := coretest.NewConn("B")

	o.OnIdentify(a, "doc1")
	o.OnIdentify(b, "pat1")

	// doc1 saw itself and pat1 come online, pat1 saw only itself
	req.Len(a.OfType(core.KindPresence), 2)
	presence := b.OfType(core.KindPresence)
	req.Len(presence, 1)
	req.Equal("pat1", presence[0]["userId"])
	req.Equal(true, presence[0]["online"])
}

func TestOrchestrator_Repeated_Identify_Repeats_Online(t *testing.T) {
	req := require.New(t)
	o := New(false)
	a := coretest.NewConn("A")

	o.OnIdentify(a, "u")
	o.OnIdentify(a, "u")

	req.Len(a.OfType(core.KindPresence), 2)
}

func TestOrchestrator_Disconnect_Unidentified_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	o := New(false)
	a := coretest.NewConn("A")
	o.OnIdentify(a, "doc1")
	a.Reset()

	o.OnDisconnect(coretest.NewConn("ghost"))

	req.Empty(a.Frames())
}

func TestOrchestrator_Disconnect_Of_Stale_Handle_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	o := New(false)
	watcher := coretest.NewConn("W")
	h1 := coretest.NewConn("h1")
	h2 := coretest.NewConn("h2")
	o.OnIdentify(watcher, "nurse")
	o.OnIdentify(h1, "u")
	o.OnIdentify(h2, "u")
	watcher.Reset()

	o.OnDisconnect(h1)

	req.Empty(watcher.Frames())
	conn, ok := o.Registry.Lookup("u")
	req.True(ok)
	req.Equal(h2, conn)
}

func TestOrchestrator_Identity_Switch_On_Same_Handle(t *testing.T) {
	req := require.New(t)
	o := New(false)
	watcher := coretest.NewConn("W")
	h := coretest.NewConn("h")
	o.OnIdentify(watcher, "nurse")
	o.OnIdentify(h, "first")
	watcher.Reset()

	o.OnIdentify(h, "second")

	presence := watcher.OfType(core.KindPresence)
	req.Len(presence, 2)
	req.Equal("first", presence[0]["userId"])
	req.Equal(false, presence[0]["online"])
	req.Equal("second", presence[1]["userId"])
	req.Equal(true, presence[1]["online"])
}

// pat1 hangs up before doc1 sends call:ended: the late message is dropped
// and every remaining connection sees pat1 go offline exactly once.
func TestOrchestrator_Disconnect_Then_Call_Ended(t *testing.T) {
	req := require.New(t)
	o := New(false)
	a := coretest.NewConn("A")
	b := coretest.NewConn("B")
	c := coretest.NewConn("C")
	o.OnIdentify(a, "doc1")
	o.OnIdentify(b, "pat1")
	o.OnIdentify(c, "nurse")
	a.Reset()
	c.Reset()

	o.OnDisconnect(b)
	out := o.OnMessage(a, []byte(`{"type":"call:ended","toUserId":"pat1","appointmentId":"apt-42"}`))

	req.Equal(app.TargetOffline, out)
	for _, conn := range []*coretest.Conn{a, c} {
		msgs := conn.Messages()
		req.Len(msgs, 1)
		req.Equal(string(core.KindPresence), msgs[0]["type"])
		req.Equal("pat1", msgs[0]["userId"])
		req.Equal(false, msgs[0]["online"])
	}

	// A second disconnect of the same handle is a no-op
	o.OnDisconnect(b)
	req.Len(a.Messages(), 1)
}

func TestOrchestrator_Call_Scenario(t *testing.T) {
	req := require.New(t)
	o := New(false)
	a := coretest.NewConn("A")
	b := coretest.NewConn("B")
	o.OnIdentify(a, "doc1")
	o.OnIdentify(b, "pat1")

	out := o.OnMessage(a, []byte(`{"type":"user:call","toUserId":"pat1","offer":{"type":"offer","sdp":"O"},"appointmentId":"apt-42"}`))

	req.Equal(app.Delivered, out)
	incoming := b.OfType(core.KindIncomingCall)
	req.Len(incoming, 1)
	req.Equal("doc1", incoming[0]["from"])
	req.Equal("apt-42", incoming[0]["appointmentId"])
	req.Equal(map[string]any{"type": "offer", "sdp": "O"}, incoming[0]["offer"])
}

func TestOrchestrator_SignalFrom(t *testing.T) {
	req := require.New(t)
	o := New(false)
	b := coretest.NewConn("B")
	o.OnIdentify(b, "pat1")

	out, err := o.SignalFrom("doc1", "pat1", []byte(`{"sdp":"x"}`))
	req.NoError(err)
	req.Equal(app.Delivered, out)
	msgs := b.OfType(core.KindSignal)
	req.Len(msgs, 1)
	req.Equal("doc1", msgs[0]["from"])

	out, err = o.SignalFrom("doc1", "nobody", []byte(`{}`))
	req.NoError(err)
	req.Equal(app.TargetOffline, out)
}

func TestOrchestrator_Strict_Sequencing(t *testing.T) {
	req := require.New(t)
	o := New(true)
	a := coretest.NewConn("A")
	b := coretest.NewConn("B")
	o.OnIdentify(a, "doc1")
	o.OnIdentify(b, "pat1")

	req.Equal(app.Rejected, o.OnMessage(b, []byte(`{"type":"call:accepted","toUserId":"doc1","answer":{"sdp":"a"}}`)))
	req.Equal(app.Delivered, o.OnMessage(a, []byte(`{"type":"user:call","toUserId":"pat1","offer":{"sdp":"o"}}`)))
	req.Equal(app.Delivered, o.OnMessage(b, []byte(`{"type":"call:accepted","toUserId":"doc1","answer":{"sdp":"a"}}`)))
	req.Equal(call.Active, o.Calls.State("doc1", "pat1"))

	// A disconnect clears the pair
	o.OnDisconnect(b)
	req.Equal(call.Idle, o.Calls.State("doc1", "pat1"))
}
