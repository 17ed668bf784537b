package orch

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join adds sid to roomName, announces the new member list to everyone in
// the room (newcomer included) and replays the chat history to the
// newcomer. It fails with core.ErrAlreadyInRoom if sid is already a member
// somewhere.
func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName) error {
	var joinErr error
	err := o.do(func() { joinErr = o.join(sid, roomName) })
	if err != nil {
		return err
	}
	return joinErr
}

func (o *Orchestrator) join(sid core.SessionID, roomName domain.RoomName) error {
	if _, ok := o.Registry.GetSession(sid); !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join from unknown session")
		return nil
	}
	members, err := o.Rooms.Join(roomName, sid)
	if err != nil {
		return err
	}
	o.Registry.MarkJoined(sid, o.now())

	o.broadcast(members, MemberJoined{Type: EventMemberJoined, ID: sid, Members: members})

	history := o.Rooms.History(roomName)
	skipped := 0
	if o.ReplayLimit > 0 && len(history) > o.ReplayLimit {
		skipped = len(history) - o.ReplayLimit
		history = history[skipped:]
	}
	for _, m := range history {
		o.send(sid, chatEvent(m))
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).
		Int("members", len(members)).Int("replayed", len(history)).Int("skipped", skipped).Msg("joined room")
	return nil
}

// leave removes sid from its room and tells the remaining members.
func (o *Orchestrator) leave(sid core.SessionID) {
	dep, ok := o.Rooms.Leave(sid)
	if !ok {
		return
	}
	o.broadcast(dep.Remaining, MemberLeft{Type: EventMemberLeft, ID: sid})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(dep.Room)).
		Int("remaining", len(dep.Remaining)).Msg("left room")
}
