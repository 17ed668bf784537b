package core

import "encoding/json"

// ChatMessage is one history entry. Sender is whatever display name the
// client supplied; Data is carried verbatim.
type ChatMessage struct {
	Sender string
	Data   json.RawMessage
	Origin SessionID
}
