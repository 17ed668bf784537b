package orch

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/rs/zerolog/log"
)

// Relay forwards payload from one connection to another, tagged with the
// sender's id. Room membership is not checked and the payload is never
// parsed. Unknown destinations are dropped silently.
func (o *Orchestrator) Relay(from, to core.SessionID, payload json.RawMessage) error {
	return o.do(func() { o.relay(from, to, payload) })
}

func (o *Orchestrator) relay(from, to core.SessionID, payload json.RawMessage) {
	if _, ok := o.Registry.GetSession(to); !ok {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", string(to)).Msg("signal: destination gone")
		return
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	o.send(to, Signal{Type: EventSignal, From: from, Payload: payload})
}
