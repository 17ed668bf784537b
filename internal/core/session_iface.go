package core

import (
	"github.com/dkeye/Meet/internal/domain"
	"github.com/google/uuid"
)

// SessionID identifies one live transport session. It is never reused.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what the orchestrator delivers to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}
