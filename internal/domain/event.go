package domain

import (
	"encoding/json"
	"fmt"
)

type EventType string

// Inbound event types (client -> relay).
const (
	EventChatMessage    EventType = "chatMessage"
	EventLocationUpdate EventType = "locationUpdate"
	EventSharingStopped EventType = "sharingStopped"
)

// Outbound event types (relay -> client).
// welcome is not part of the broadcast contract: it hands the client its
// assigned id, which socket-level transports get for free but a plain
// websocket does not.
const (
	EventWelcome            EventType = "welcome"
	EventInitialUsers       EventType = "initialUsers"
	EventUserJoined         EventType = "userJoined"
	EventNewChatMessage     EventType = "newChatMessage"
	EventLocationShareEnded EventType = "locationShareEnded"
	EventUserDisconnected   EventType = "userDisconnected"
)

// Event is a single frame on the wire: a type tag plus a type-specific
// JSON payload.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope wraps an outbound event for fan-out over the bus. Exclude names
// one connection id that must not receive the event (used for userJoined,
// which goes to everyone but the joining participant).
type Envelope struct {
	Event   Event  `json:"event"`
	Exclude string `json:"exclude,omitempty"`
}

// NewEvent marshals payload into an Event frame.
func NewEvent(t EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}
	return Event{Type: t, Payload: data}, nil
}
