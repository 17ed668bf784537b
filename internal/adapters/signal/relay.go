package signal

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards an offer, answer or ICE candidate. The payload is
// passed through as raw JSON.
func (ctl *SignalWSController) handleRelay(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type signalPayload struct {
		Type    string          `json:"type"`
		To      string          `json:"to"`
		Payload json.RawMessage `json:"payload"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad signal payload")
		ctl.sendError(conn, errBadPayload)
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("signal rate limited")
		return
	}
	if err := ctl.Orch.Relay(sid, core.SessionID(p.To), p.Payload); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("relay")
	}
}
