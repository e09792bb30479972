package models

import "time"

// Conversation kinds.
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// Conversation is a direct or group chat. Direct conversations carry no name;
// the UI derives it from the counterpart's profile. UpdatedAt is bumped on
// every send and is the conversation-list sort key.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Name      *string   `db:"name" json:"name"`
	DirectKey *string   `db:"direct_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participant is a membership record.
type Participant struct {
	ConversationID string `db:"conversation_id" json:"conversation_id"`
	UserID         string `db:"user_id" json:"user_id"`
}

// ConversationSummary is the enriched conversation-list view.
type ConversationSummary struct {
	Conversation
	Participants []Profile `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int       `json:"unread_count"`
}
