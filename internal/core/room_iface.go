package core

import (
	"errors"

	"github.com/dkeye/Meet/internal/domain"
)

// ErrAlreadyInRoom is returned when a connection that is already a member of
// some room tries to join again.
var ErrAlreadyInRoom = errors.New("connection already in a room")

// Departure describes the room a connection left.
type Departure struct {
	Room      domain.RoomName
	Remaining []SessionID
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
	HistoryLen  int             `json:"history_len"`
}

// RoomRegistry maps room names to ordered member lists and chat history.
// Implementations are not safe for concurrent use; a single owner
// serializes every call.
type RoomRegistry interface {
	// Join appends sid to the room, creating it if needed, and returns the
	// full ordered member list.
	Join(name domain.RoomName, sid SessionID) ([]SessionID, error)
	// Leave removes sid from its room and deletes the room if it became empty.
	Leave(sid SessionID) (Departure, bool)
	RoomOf(sid SessionID) (domain.RoomName, bool)

	Members(name domain.RoomName) []SessionID
	AppendChat(name domain.RoomName, msg ChatMessage) bool
	History(name domain.RoomName) []ChatMessage
	List() []RoomInfo
}
