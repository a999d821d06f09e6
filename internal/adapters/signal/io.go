package signal

import (
	"encoding/json"
	"time"

	"github.com/dkeye/telemed/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("cid", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("cid", string(c.id)).Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: its exit is the disconnect event.
func (ctl *SignalWSController) readPump(c *WsSignalConn, stop func() bool) {
	defer func() {
		stop()
		c.Close()
		ctl.Orch.OnDisconnect(c)
		log.Info().Str("module", "signal").Str("cid", string(c.id)).Msg("connection closed")
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleSignal(c, data)
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	var env struct {
		Type core.Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(c.id)).Msg("bad json")
		return
	}

	// identify is never rate limited so a client can always bind itself.
	if env.Type != core.KindIdentify && !c.allow() {
		log.Warn().
			Str("module", "signal").
			Str("cid", string(c.id)).
			Str("kind", string(env.Type)).
			Msg("rate limited, dropped")
		return
	}

	switch env.Type {
	case core.KindIdentify:
		ctl.handleIdentify(c, data)
	case core.KindPing:
		ctl.handlePing(c)
	default:
		ctl.Orch.OnMessage(c, data)
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("cid", string(c.id)).Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, reason string) {
	ctl.sendJSON(c, map[string]any{
		"type":  core.KindError,
		"error": reason,
	})
}
