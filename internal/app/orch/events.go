package orch

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Outbound event types.
const (
	EventWelcome      = "welcome"
	EventMemberJoined = "member-joined"
	EventMemberLeft   = "member-left"
	EventChatMessage  = "chat-message"
	EventSignal       = "signal"
	EventWhoAmI       = "whoami"
	EventError        = "error"
)

type Welcome struct {
	Type string         `json:"type"`
	ID   core.SessionID `json:"id"`
}

type MemberJoined struct {
	Type    string           `json:"type"`
	ID      core.SessionID   `json:"id"`
	Members []core.SessionID `json:"members"`
}

type MemberLeft struct {
	Type string         `json:"type"`
	ID   core.SessionID `json:"id"`
}

type ChatMessage struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Sender string          `json:"sender"`
	Origin core.SessionID  `json:"origin"`
}

type Signal struct {
	Type    string          `json:"type"`
	From    core.SessionID  `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type WhoAmI struct {
	Type  string          `json:"type"`
	ID    core.SessionID  `json:"id"`
	Room  domain.RoomName `json:"room,omitempty"`
	State string          `json:"state"`
}

type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func chatEvent(m core.ChatMessage) ChatMessage {
	data := m.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return ChatMessage{Type: EventChatMessage, Data: data, Sender: m.Sender, Origin: m.Origin}
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return nil, false
	}
	return b, true
}
