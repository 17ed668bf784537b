package signal

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleChat(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type chatPayload struct {
		Type   string          `json:"type"`
		Data   json.RawMessage `json:"data"`
		Sender string          `json:"sender"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad chat payload")
		ctl.sendError(conn, errBadPayload)
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("chat rate limited")
		return
	}
	if err := ctl.Orch.SendChat(sid, p.Sender, p.Data); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("chat")
	}
}
