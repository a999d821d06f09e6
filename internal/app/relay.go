package app

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome reports what happened to one relayed message.
type Outcome int

const (
	Rejected Outcome = iota
	Delivered
	TargetOffline
	SenderNotified
	Backpressured
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Delivered:
		return "delivered"
	case TargetOffline:
		return "target_offline"
	case SenderNotified:
		return "sender_notified"
	case Backpressured:
		return "backpressured"
	default:
		return "unknown"
	}
}

// CallTracker optionally checks that call messages arrive in a sensible
// order. A nil tracker keeps the relay fully permissive.
type CallTracker interface {
	Advance(from, to domain.UserID, kind core.Kind) error
	Forget(uid domain.UserID)
}

// Relay forwards signaling messages between two identified users. It keeps
// no per-call state of its own: one registry lookup and at most one send
// per message, no retries.
type Relay struct {
	registry core.Registry
	routes   map[core.Kind]RoutePolicy
	calls    CallTracker
}

type RelayOption func(*Relay)

func WithCallTracker(t CallTracker) RelayOption {
	return func(r *Relay) { r.calls = t }
}

func WithRoutes(routes map[core.Kind]RoutePolicy) RelayOption {
	return func(r *Relay) { r.routes = routes }
}

func NewRelay(registry core.Registry, opts ...RelayOption) *Relay {
	r := &Relay{
		registry: registry,
		routes:   DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handles reports whether kind is a relay kind.
func (r *Relay) Handles(kind core.Kind) bool {
	_, ok := r.routes[kind]
	return ok
}

// Route decodes one inbound frame from src and forwards it. The sender is
// taken from the registry, never from the payload.
func (r *Relay) Route(src core.SignalConnection, data []byte) (Outcome, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		merr := &MalformedError{Reason: fmt.Sprintf("bad json: %v", err)}
		log.Warn().Err(merr).Str("module", "app.relay").Str("cid", string(src.ID())).Msg("dropped")
		return Rejected, merr
	}
	from, _ := r.registry.ReverseLookup(src.ID())
	return r.Dispatch(from, src, msg)
}

// Dispatch forwards an already decoded message. from may be empty for an
// unidentified sender; reply receives the offline signal and may be nil.
func (r *Relay) Dispatch(from domain.UserID, reply core.SignalConnection, msg Message) (Outcome, error) {
	logger := log.With().
		Str("module", "app.relay").
		Str("kind", string(msg.Type)).
		Str("from", string(from)).
		Str("to", string(msg.ToUserID)).
		Logger()

	policy, ok := r.routes[msg.Type]
	if !ok {
		merr := &MalformedError{Kind: msg.Type, Reason: "unknown kind"}
		logger.Warn().Err(merr).Msg("dropped")
		return Rejected, merr
	}
	if msg.ToUserID == "" {
		merr := &MalformedError{Kind: msg.Type, Reason: "missing toUserId"}
		logger.Warn().Err(merr).Msg("dropped")
		return Rejected, merr
	}
	for _, f := range policy.Require {
		if missing(f, msg.field(f)) {
			merr := &MalformedError{Kind: msg.Type, Reason: "missing " + f.String()}
			logger.Warn().Err(merr).Msg("dropped")
			return Rejected, merr
		}
	}

	target, ok := r.registry.Lookup(msg.ToUserID)
	if !ok {
		if policy.OnMiss == NotifySender && reply != nil {
			r.sendOffline(reply, msg, &logger)
			return SenderNotified, nil
		}
		logger.Debug().Msg("target offline, dropped")
		return TargetOffline, nil
	}

	if r.calls != nil {
		if err := r.calls.Advance(from, msg.ToUserID, msg.Type); err != nil {
			logger.Warn().Err(err).Msg("dropped")
			return Rejected, err
		}
	}

	out := outboundMessage{Type: policy.Outbound, From: from}
	for _, f := range policy.Carry {
		out.set(f, msg.field(f))
	}
	data, err := json.Marshal(out)
	if err != nil {
		logger.Error().Err(err).Msg("marshal outbound")
		return Rejected, err
	}
	if err := target.TrySend(data); err != nil {
		logger.Warn().Err(err).Str("target_cid", string(target.ID())).Msg("send failed, dropped")
		return Backpressured, nil
	}
	logger.Debug().Str("target_cid", string(target.ID())).Msg("delivered")
	return Delivered, nil
}

func (r *Relay) sendOffline(reply core.SignalConnection, msg Message, logger *zerolog.Logger) {
	data, err := json.Marshal(outboundMessage{
		Type:          core.KindUserOffline,
		UserID:        msg.ToUserID,
		AppointmentID: msg.AppointmentID,
	})
	if err != nil {
		logger.Error().Err(err).Msg("marshal offline signal")
		return
	}
	if err := reply.TrySend(data); err != nil {
		logger.Warn().Err(err).Msg("offline signal dropped")
		return
	}
	logger.Debug().Msg("target offline, sender notified")
}
