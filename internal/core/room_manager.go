package core

import (
	"cmp"
	"slices"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager is the in-memory RoomRegistry. It keeps a reverse index
// sid -> room in step with every join and leave, so RoomOf is O(1).
type RoomManager struct {
	rooms        map[domain.RoomName]*roomImpl
	bySID        map[SessionID]domain.RoomName
	historyLimit int
}

// NewRoomManager returns an empty registry. historyLimit caps the chat
// history kept per room; 0 keeps everything for the room's lifetime.
func NewRoomManager(historyLimit int) *RoomManager {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &RoomManager{
		rooms:        make(map[domain.RoomName]*roomImpl),
		bySID:        make(map[SessionID]domain.RoomName),
		historyLimit: historyLimit,
	}
}

var _ RoomRegistry = (*RoomManager)(nil)

func (m *RoomManager) Join(name domain.RoomName, sid SessionID) ([]SessionID, error) {
	if current, ok := m.bySID[sid]; ok {
		log.Debug().Str("module", "core.room").Str("sid", string(sid)).Str("room", string(current)).Msg("join rejected, already in room")
		return nil, ErrAlreadyInRoom
	}
	room, ok := m.rooms[name]
	if !ok {
		room = newRoom(name, m.historyLimit)
		m.rooms[name] = room
		log.Info().Str("module", "core.room").Str("room", string(name)).Msg("room created")
	}
	room.add(sid)
	m.bySID[sid] = name
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Str("room", string(name)).Int("members", len(room.members)).Msg("member added")
	return room.membersSnapshot(), nil
}

func (m *RoomManager) Leave(sid SessionID) (Departure, bool) {
	name, ok := m.bySID[sid]
	if !ok {
		return Departure{}, false
	}
	delete(m.bySID, sid)

	room, ok := m.rooms[name]
	if !ok || !room.remove(sid) {
		return Departure{}, false
	}
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Str("room", string(name)).Int("members", len(room.members)).Msg("member removed")

	if room.empty() {
		delete(m.rooms, name)
		log.Info().Str("module", "core.room").Str("room", string(name)).Int("history", len(room.history)).Msg("room deleted")
	}
	return Departure{Room: name, Remaining: room.membersSnapshot()}, true
}

func (m *RoomManager) RoomOf(sid SessionID) (domain.RoomName, bool) {
	name, ok := m.bySID[sid]
	return name, ok
}

func (m *RoomManager) Members(name domain.RoomName) []SessionID {
	if room, ok := m.rooms[name]; ok {
		return room.membersSnapshot()
	}
	return nil
}

// AppendChat records msg in the room's history. It returns false when the
// room does not exist.
func (m *RoomManager) AppendChat(name domain.RoomName, msg ChatMessage) bool {
	room, ok := m.rooms[name]
	if !ok {
		return false
	}
	room.appendChat(msg)
	return true
}

func (m *RoomManager) History(name domain.RoomName) []ChatMessage {
	if room, ok := m.rooms[name]; ok {
		return room.historySnapshot()
	}
	return nil
}

// List returns a summary of every live room ordered by name.
func (m *RoomManager) List() []RoomInfo {
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.info())
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
