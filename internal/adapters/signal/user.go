package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleIdentify(
	conn *WsSignalConn,
	data []byte,
) {
	type identifyPayload struct {
		UserID domain.UserID `json:"userId"`
	}
	var p identifyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad identify payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	uid, err := domain.ParseUserID(string(p.UserID))
	if errors.Is(err, domain.ErrUserIDEmpty) {
		log.Debug().Str("module", "signal").Str("cid", string(conn.id)).Msg("empty identify ignored")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(conn.id)).Msg("identify refused")
		ctl.sendError(conn, "invalid_user_id")
		return
	}

	if conn.principal != "" && conn.principal != uid {
		log.Warn().
			Str("module", "signal").
			Str("cid", string(conn.id)).
			Str("principal", string(conn.principal)).
			Str("user", string(uid)).
			Msg("identify does not match token subject")
		ctl.sendError(conn, "identity_mismatch")
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(conn.id)).Str("user", string(uid)).Msg("identify")
	ctl.Orch.OnIdentify(conn, uid)
}
