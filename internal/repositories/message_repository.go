package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")
var ErrDeleteWindowClosed = errors.New("message delete window closed")

const messageColumns = `id, conversation_id, sender_id, content, attachment_url, attachment_name, attachment_mime, is_attention, read_at, created_at`

// UnreadCount is a per-conversation unread aggregate row.
type UnreadCount struct {
	ConversationID string `db:"conversation_id"`
	Count          int    `db:"count"`
}

// MessageRepository defines interactions with the message store.
type MessageRepository interface {
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	PageBefore(ctx context.Context, conversationID string, before *time.Time, beforeID string, limit int) ([]models.Message, error)
	LastPerConversation(ctx context.Context, conversationIDs []string) ([]models.Message, error)
	UnreadCounts(ctx context.Context, conversationIDs []string, selfID string) ([]UnreadCount, error)
	MarkRead(ctx context.Context, conversationID, selfID string) (int64, error)
	GetByID(ctx context.Context, messageID string) (models.Message, error)
	DeleteOwn(ctx context.Context, messageID, senderID string, window time.Duration) error
	ClearConversation(ctx context.Context, conversationID string) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message with read_at null.
func (r *MessageRepo) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	var out models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, attachment_url, attachment_name, attachment_mime, is_attention)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+messageColumns,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content,
		msg.AttachmentURL, msg.AttachmentName, msg.AttachmentMime, msg.IsAttention).
		StructScan(&out)
	return out, err
}

// PageBefore returns up to limit messages newest first. The cursor is the
// creation timestamp, falling back to id on clock ties so a page boundary
// never skips or repeats rows. Callers reverse the page to chronological
// order before handing it to clients.
func (r *MessageRepo) PageBefore(ctx context.Context, conversationID string, before *time.Time, beforeID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if before == nil {
		err := r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM messages
             WHERE conversation_id=$1
             ORDER BY created_at DESC, id DESC
             LIMIT $2`, conversationID, limit)
		return msgs, err
	}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
           AND (created_at < $2 OR (created_at = $2 AND id < $3))
         ORDER BY created_at DESC, id DESC
         LIMIT $4`, conversationID, before, beforeID, limit)
	return msgs, err
}

// LastPerConversation returns the most recent message of each conversation
// in one query.
func (r *MessageRepo) LastPerConversation(ctx context.Context, conversationIDs []string) ([]models.Message, error) {
	if len(conversationIDs) == 0 {
		return []models.Message{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT DISTINCT ON (conversation_id) `+messageColumns+` FROM messages
         WHERE conversation_id IN (?)
         ORDER BY conversation_id, created_at DESC, id DESC`, conversationIDs)
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	err = r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), args...)
	return msgs, err
}

// UnreadCounts aggregates unread messages from other senders, grouped by
// conversation. Always recomputed from the store, never cached.
func (r *MessageRepo) UnreadCounts(ctx context.Context, conversationIDs []string, selfID string) ([]UnreadCount, error) {
	if len(conversationIDs) == 0 {
		return []UnreadCount{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT conversation_id, COUNT(*) AS count FROM messages
         WHERE conversation_id IN (?) AND sender_id <> ? AND read_at IS NULL
         GROUP BY conversation_id`, conversationIDs, selfID)
	if err != nil {
		return nil, err
	}
	var counts []UnreadCount
	err = r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...)
	return counts, err
}

// MarkRead stamps read_at on every unread message from other senders.
// Idempotent: a second call matches zero rows and writes nothing.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, selfID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at=NOW()
         WHERE conversation_id=$1 AND sender_id<>$2 AND read_at IS NULL`,
		conversationID, selfID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetByID retrieves a single message.
func (r *MessageRepo) GetByID(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteOwn removes the sender's message while it is still inside the
// self-service window.
func (r *MessageRepo) DeleteOwn(ctx context.Context, messageID, senderID string, window time.Duration) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id=$1 AND sender_id=$2 AND created_at > NOW() - make_interval(secs => $3)`,
		messageID, senderID, window.Seconds())
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrDeleteWindowClosed
	}
	return nil
}

// ClearConversation bulk-deletes a conversation's history. The conversation
// row itself persists.
func (r *MessageRepo) ClearConversation(ctx context.Context, conversationID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id=$1`, conversationID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
