package models

import "time"

// Message is a chat message. Content may be empty for attachment-only
// messages; the attachment fields are null together. ReadAt is a single
// timestamp set by whichever non-sender marks the conversation read first;
// it does not track per-reader receipts in group conversations.
type Message struct {
	ID             string     `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	SenderID       string     `db:"sender_id" json:"sender_id"`
	Content        string     `db:"content" json:"content"`
	AttachmentURL  *string    `db:"attachment_url" json:"attachment_url"`
	AttachmentName *string    `db:"attachment_name" json:"attachment_name"`
	AttachmentMime *string    `db:"attachment_mime" json:"attachment_mime"`
	IsAttention    bool       `db:"is_attention" json:"is_attention"`
	ReadAt         *time.Time `db:"read_at" json:"read_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// HasAttachment reports whether the attachment descriptor is present.
func (m Message) HasAttachment() bool {
	return m.AttachmentURL != nil
}

// Reaction is an emoji toggle keyed by (message, user, emoji).
type Reaction struct {
	MessageID string    `db:"message_id" json:"message_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
