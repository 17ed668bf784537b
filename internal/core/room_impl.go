package core

import (
	"slices"

	"github.com/dkeye/Meet/internal/domain"
)

// roomImpl is an in-memory room: members in join order plus chat history.
// Not safe for concurrent use.
type roomImpl struct {
	name    domain.RoomName
	members []SessionID
	history []ChatMessage
	// historyLimit caps len(history); 0 means unbounded.
	historyLimit int
}

func newRoom(name domain.RoomName, historyLimit int) *roomImpl {
	return &roomImpl{name: name, historyLimit: historyLimit}
}

func (r *roomImpl) add(sid SessionID) {
	r.members = append(r.members, sid)
}

// remove drops the first occurrence of sid and reports whether it was found.
func (r *roomImpl) remove(sid SessionID) bool {
	i := slices.Index(r.members, sid)
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	return true
}

func (r *roomImpl) empty() bool { return len(r.members) == 0 }

func (r *roomImpl) membersSnapshot() []SessionID {
	return slices.Clone(r.members)
}

func (r *roomImpl) appendChat(msg ChatMessage) {
	r.history = append(r.history, msg)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		over := len(r.history) - r.historyLimit
		r.history = slices.Delete(r.history, 0, over)
	}
}

func (r *roomImpl) historySnapshot() []ChatMessage {
	return slices.Clone(r.history)
}

func (r *roomImpl) info() RoomInfo {
	return RoomInfo{Name: r.name, MemberCount: len(r.members), HistoryLen: len(r.history)}
}
