package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")
var ErrSelfConversation = errors.New("cannot start a conversation with yourself")

const conversationColumns = `id, kind, name, direct_key, created_at, updated_at`

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	StartDirect(ctx context.Context, selfID, otherID string) (models.Conversation, error)
	CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (models.Conversation, error)
	Get(ctx context.Context, conversationID string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	ParticipantsFor(ctx context.Context, conversationIDs []string) ([]models.Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	BumpUpdatedAt(ctx context.Context, conversationID string) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// StartDirect returns the existing direct conversation between the pair, or
// creates it. The scan-then-create is not atomic against a simultaneous
// double-start from both sides; the unique direct_key collapses that race at
// the store instead of leaving a duplicate pair.
func (r *ConversationRepo) StartDirect(ctx context.Context, selfID, otherID string) (models.Conversation, error) {
	if selfID == otherID {
		return models.Conversation{}, ErrSelfConversation
	}
	key := directKey(selfID, otherID)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE direct_key=$1`, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, kind, direct_key) VALUES ($1, $2, $3)
         ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key
         RETURNING `+conversationColumns,
		uuid.NewString(), models.KindDirect, key).StructScan(&conv)
	if err != nil {
		return models.Conversation{}, err
	}

	for _, userID := range []string{selfID, otherID} {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO participants (conversation_id, user_id) VALUES ($1, $2)
             ON CONFLICT DO NOTHING`, conv.ID, userID); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// CreateGroup creates a named group and its participant rows atomically.
// The creator is always included and member ids are deduplicated.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, kind, name) VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		uuid.NewString(), models.KindGroup, name).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	memberSet := map[string]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	ids := make([]string, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO participants (conversation_id, user_id) VALUES ($1, $2)`, conv.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the user's conversations newest-activity first.
// updated_at, not created_at, is the sort key.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT c.id, c.kind, c.name, c.direct_key, c.created_at, c.updated_at
         FROM conversations c
         INNER JOIN participants p ON p.conversation_id = c.id
         WHERE p.user_id=$1
         ORDER BY c.updated_at DESC`, userID)
	return convs, err
}

// ParticipantsFor returns membership rows for a batch of conversations.
func (r *ConversationRepo) ParticipantsFor(ctx context.Context, conversationIDs []string) ([]models.Participant, error) {
	if len(conversationIDs) == 0 {
		return []models.Participant{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT conversation_id, user_id FROM participants WHERE conversation_id IN (?)`, conversationIDs)
	if err != nil {
		return nil, err
	}
	var parts []models.Participant
	err = r.db.SelectContext(ctx, &parts, r.db.Rebind(query), args...)
	return parts, err
}

// IsParticipant checks whether a user belongs to the conversation.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id=$1 AND user_id=$2)`,
		conversationID, userID)
	return exists, err
}

// BumpUpdatedAt moves the conversation to the top of the list ordering.
func (r *ConversationRepo) BumpUpdatedAt(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at=NOW() WHERE id=$1`, conversationID)
	return err
}

func directKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s", a, b)
}
