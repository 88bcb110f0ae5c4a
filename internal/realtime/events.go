package realtime

import "encoding/json"

// Server-to-client event names. Ordering is only guaranteed per event name,
// per connection.
const (
	EventNotification   = "notification"
	EventNewMessage     = "new-message"
	EventPresenceUpdate = "presence-update"
	EventNewStory       = "new-story"
)

// EventJoinRoom is the only client-to-server frame the hub accepts. Its data
// is the JSON-encoded user id the client wants to receive pushes for.
const EventJoinRoom = "join-room"

// BroadcastTarget addresses an envelope at every joined connection.
const BroadcastTarget = "*"

// Frame is the wire shape exchanged over the websocket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Envelope is the fan-out shape carried over the redis pub/sub channel so any
// instance can deliver to its local connections.
type Envelope struct {
	UserID string          `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// PresencePayload is the data carried by presence-update events.
type PresencePayload struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
