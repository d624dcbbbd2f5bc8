package dtos

import (
	"encoding/json"
	"time"

	"infinite-experiment/hangar/internal/constants"
)

// Realtime message types.
const (
	RealtimeJoin    = "join"
	RealtimeLeave   = "leave"
	RealtimeJoined  = "joined"
	RealtimeLeft    = "left"
	RealtimeChange  = "change"
	RealtimeError   = "error"
	RealtimeClosing = "closing"
)

// RealtimeMessage is the single frame type exchanged on the realtime websocket.
type RealtimeMessage struct {
	Type    string            `json:"type"`
	Topic   string            `json:"topic"`
	Table   string            `json:"table,omitempty"`
	Filter  map[string]string `json:"filter,omitempty"`
	Payload *ChangePayload    `json:"payload,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ChangePayload describes one row change. EventType is the discriminator.
type ChangePayload struct {
	EventType       constants.ChangeType `json:"eventType"`
	Table           string               `json:"table"`
	New             json.RawMessage      `json:"new,omitempty"`
	Old             json.RawMessage      `json:"old,omitempty"`
	CommitTimestamp time.Time            `json:"commit_timestamp"`
}
