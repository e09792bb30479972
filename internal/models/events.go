package models

import "time"

// Event types broadcast over conversation websocket rooms.
const (
	EventMessage       = "message"
	EventAttention     = "attention"
	EventRead          = "read"
	EventDelete        = "delete"
	EventClear         = "clear"
	EventTyping        = "typing"
	EventTypingStopped = "typing_stopped"
)

// Event is the envelope written to conversation subscribers.
type Event struct {
	Type        string     `json:"type"`
	Message     *Message   `json:"message,omitempty"`
	MessageID   string     `json:"message_id,omitempty"`
	ReaderID    string     `json:"reader_id,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
}

// TypingSignal is the inbound frame clients send while composing.
type TypingSignal struct {
	Type string `json:"type"`
}
