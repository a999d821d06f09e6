package signal

import "github.com/dkeye/telemed/internal/core"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type core.Kind `json:"type"`
	}{
		Type: core.KindPong,
	}
	ctl.sendJSON(conn, resp)
}
