package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, errBadPayload)
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join")
	err := ctl.Orch.Join(sid, domain.RoomName(p.Room))
	switch {
	case err == nil:
	case errors.Is(err, core.ErrAlreadyInRoom):
		ctl.sendError(conn, errAlreadyInRoom)
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join")
	}
}
