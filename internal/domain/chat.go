package domain

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeLocation MessageType = "location"
)

// Participant is one connected client session. Coordinates are nil until
// the participant sends its first location update.
type Participant struct {
	ID        string   `json:"id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ChatMessage is relayed verbatim to every connection, including the
// sender. The id is client-generated from the creation timestamp and keys
// the live-location session for location messages.
type ChatMessage struct {
	ID        int64       `json:"id"`
	Type      MessageType `json:"type"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Time      string      `json:"time,omitempty"`
	Ended     bool        `json:"ended"`
	EndTime   string      `json:"endTime,omitempty"`
}

// Coordinates is the payload of an inbound locationUpdate tick.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SharingStopped is the payload of both the inbound sharingStopped event
// and the outbound locationShareEnded broadcast.
type SharingStopped struct {
	MsgID int64 `json:"msgId"`
}

// Validate rejects messages that would corrupt the relay's shared state or
// confuse clients: unknown types, missing ids, and location messages
// without coordinates.
func (m ChatMessage) Validate() error {
	switch m.Type {
	case MessageTypeText, MessageTypeLocation:
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if m.ID == 0 {
		return fmt.Errorf("message has no id")
	}
	if m.Type == MessageTypeLocation && (m.Latitude == nil || m.Longitude == nil) {
		return fmt.Errorf("location message %d is missing coordinates", m.ID)
	}
	return nil
}

// DecodeCoordinates parses a locationUpdate payload, requiring both fields
// to be present.
func DecodeCoordinates(data []byte) (Coordinates, error) {
	var raw struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Coordinates{}, fmt.Errorf("failed to decode coordinates: %w", err)
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		return Coordinates{}, fmt.Errorf("coordinates payload is incomplete")
	}
	return Coordinates{Latitude: *raw.Latitude, Longitude: *raw.Longitude}, nil
}
