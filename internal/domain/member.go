// Package domain contains entity without logic, just meta-data
package domain

import "time"

// SessionState is the lifecycle stage of a single connection.
type SessionState int

const (
	StateConnected SessionState = iota
	StateJoined
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Member represents a connection's participation meta.
// No transport logic here.
type Member struct {
	// ClientToken is the browser's cookie token. Several connections may share it.
	ClientToken string
	ConnectedAt time.Time
	JoinedAt    time.Time
	State       SessionState
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(clientToken string) *Member {
	return &Member{
		ClientToken: clientToken,
		ConnectedAt: time.Now(),
		State:       StateConnected,
	}
}

// MarkJoined records the join timestamp.
func (m *Member) MarkJoined(at time.Time) {
	m.JoinedAt = at
	m.State = StateJoined
}

// Online reports how long the member has been connected.
func (m *Member) Online(now time.Time) time.Duration {
	return now.Sub(m.ConnectedAt)
}
