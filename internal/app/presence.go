package app

import (
	"encoding/json"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog/log"
)

type presenceMessage struct {
	Type   core.Kind     `json:"type"`
	UserID domain.UserID `json:"userId"`
	Online bool          `json:"online"`
}

// Presence fans online/offline transitions out to every registered
// connection. It does not deduplicate.
type Presence struct {
	registry core.Registry
}

func NewPresence(registry core.Registry) *Presence {
	return &Presence{registry: registry}
}

func (p *Presence) Online(uid domain.UserID) core.PublishResult {
	return p.publish(uid, true)
}

func (p *Presence) Offline(uid domain.UserID) core.PublishResult {
	return p.publish(uid, false)
}

func (p *Presence) publish(uid domain.UserID, online bool) core.PublishResult {
	res := core.PublishResult{}
	data, err := json.Marshal(presenceMessage{Type: core.KindPresence, UserID: uid, Online: online})
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("marshal presence")
		return res
	}
	for _, conn := range p.registry.Snapshot() {
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, conn)
			continue
		}
		res.SendTo++
	}
	log.Debug().
		Str("module", "app.presence").
		Str("user", string(uid)).
		Bool("online", online).
		Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}
