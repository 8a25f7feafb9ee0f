package ws

const (
	// client -> server
	MsgJoin  = "join"
	MsgLeave = "leave"

	// server -> client
	MsgReady  = "ready"
	MsgJoined = "joined"
	MsgError  = "error"
)

// inbound is what connected clients send: a join/leave announce for
// their own user channel.
type inbound struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

type ack struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id,omitempty"`
}

type errorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
