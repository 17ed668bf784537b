package orch

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/rs/zerolog/log"
)

// SendChat appends a message to the sender's room and fans it out to every
// member, sender included. Senders outside any room are ignored.
func (o *Orchestrator) SendChat(sid core.SessionID, sender string, data json.RawMessage) error {
	return o.do(func() { o.sendChat(sid, sender, data) })
}

func (o *Orchestrator) sendChat(sid core.SessionID, sender string, data json.RawMessage) {
	roomName, ok := o.Rooms.RoomOf(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("chat: sender not in a room")
		return
	}
	msg := core.ChatMessage{Sender: sender, Data: data, Origin: sid}
	if !o.Rooms.AppendChat(roomName, msg) {
		return
	}
	o.broadcast(o.Rooms.Members(roomName), chatEvent(msg))
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("chat message")
}
