package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
)

// ReactionRepository defines emoji reaction interactions.
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID, userID, emoji string) (bool, error)
	ListForMessage(ctx context.Context, messageID string) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx-backed implementation.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle removes the reaction if present, otherwise adds it. Returns true
// when the reaction was added.
func (r *ReactionRepo) Toggle(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)`,
		messageID, userID, emoji)
	return err == nil, err
}

// ListForMessage returns the reactions on a message.
func (r *ReactionRepo) ListForMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT message_id, user_id, emoji, created_at FROM reactions WHERE message_id=$1 ORDER BY created_at ASC`,
		messageID)
	return reactions, err
}
