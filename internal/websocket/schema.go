package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSnapshot  Event = "snapshot"
	EventExamEvent Event = "exam_event"
	EventPong      Event = "pong"
)

// SnapshotMessage carries the aggregate exam statistics, sent when the
// monitor attaches and on every refresh.
type SnapshotMessage struct {
	Event Event       `json:"event"`
	Stats interface{} `json:"stats"`
}

// EventMessage forwards one attempt lifecycle event. Payload is the
// already-serialized event from the Pub/Sub channel.
type EventMessage struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
