package signal

import "github.com/dkeye/Meet/internal/core"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID) {
	_ = ctl.Orch.WhoAmI(sid)
}
