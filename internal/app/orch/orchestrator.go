package orch

import (
	"github.com/dkeye/telemed/internal/app"
	"github.com/dkeye/telemed/internal/app/call"
	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator ties registry, presence and relay to connection lifecycle
// events coming from the transport adapters.
type Orchestrator struct {
	Registry core.Registry
	Presence *app.Presence
	Relay    *app.Relay
	// Calls is set only when strict sequencing is enabled.
	Calls *call.Tracker
}

// New wires a fresh in-memory registry. strict enables call sequencing.
func New(strict bool) *Orchestrator {
	reg := app.NewRegistry()
	o := &Orchestrator{
		Registry: reg,
		Presence: app.NewPresence(reg),
	}
	var opts []app.RelayOption
	if strict {
		o.Calls = call.NewTracker()
		opts = append(opts, app.WithCallTracker(o.Calls))
	}
	o.Relay = app.NewRelay(reg, opts...)
	return o
}

func (o *Orchestrator) OnIdentify(conn core.SignalConnection, uid domain.UserID) {
	res := o.Registry.Identify(uid, conn)
	if res.Displaced != "" {
		o.Presence.Offline(res.Displaced)
	}
	o.Presence.Online(uid)
}

func (o *Orchestrator) OnMessage(conn core.SignalConnection, data []byte) app.Outcome {
	out, _ := o.Relay.Route(conn, data)
	return out
}

// SignalFrom relays a generic signal on behalf of uid without a live
// connection of its own.
func (o *Orchestrator) SignalFrom(uid, to domain.UserID, payload []byte) (app.Outcome, error) {
	return o.Relay.Dispatch(uid, nil, app.Message{
		Type:     core.KindSignal,
		ToUserID: to,
		Payload:  payload,
	})
}

// OnDisconnect is the only place registry entries are purged. Presence goes
// out only when the handle was still bound to someone.
func (o *Orchestrator) OnDisconnect(conn core.SignalConnection) {
	uid, ok := o.Registry.Remove(conn.ID())
	if !ok {
		log.Debug().Str("module", "orch").Str("cid", string(conn.ID())).Msg("disconnect of unidentified connection")
		return
	}
	if o.Calls != nil {
		o.Calls.Forget(uid)
	}
	o.Presence.Offline(uid)
}
