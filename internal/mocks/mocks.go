package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) Create(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var out models.Profile
	if val := args.Get(0); val != nil {
		out = val.(models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByID(ctx context.Context, userID string) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var out models.Profile
	if val := args.Get(0); val != nil {
		out = val.(models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	args := m.Called(ctx, email)
	var out models.Profile
	if val := args.Get(0); val != nil {
		out = val.(models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) List(ctx context.Context, excludeID, department string) ([]models.Profile, error) {
	args := m.Called(ctx, excludeID, department)
	var out []models.Profile
	if val := args.Get(0); val != nil {
		out = val.([]models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) ListByIDs(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	var out []models.Profile
	if val := args.Get(0); val != nil {
		out = val.([]models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) Update(ctx context.Context, userID string, update models.ProfileUpdate) (models.Profile, error) {
	args := m.Called(ctx, userID, update)
	var out models.Profile
	if val := args.Get(0); val != nil {
		out = val.(models.Profile)
	}
	return out, args.Error(1)
}

func (m *ProfileRepositoryMock) SetOnline(ctx context.Context, userID string, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) StartDirect(ctx context.Context, selfID, otherID string) (models.Conversation, error) {
	args := m.Called(ctx, selfID, otherID)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, name, memberIDs)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var out []models.Conversation
	if val := args.Get(0); val != nil {
		out = val.([]models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) ParticipantsFor(ctx context.Context, conversationIDs []string) ([]models.Participant, error) {
	args := m.Called(ctx, conversationIDs)
	var out []models.Participant
	if val := args.Get(0); val != nil {
		out = val.([]models.Participant)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) BumpUpdatedAt(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) PageBefore(ctx context.Context, conversationID string, before *time.Time, beforeID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, before, beforeID, limit)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) LastPerConversation(ctx context.Context, conversationIDs []string) ([]models.Message, error) {
	args := m.Called(ctx, conversationIDs)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCounts(ctx context.Context, conversationIDs []string, selfID string) ([]repositories.UnreadCount, error) {
	args := m.Called(ctx, conversationIDs, selfID)
	var out []repositories.UnreadCount
	if val := args.Get(0); val != nil {
		out = val.([]repositories.UnreadCount)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID, selfID string) (int64, error) {
	args := m.Called(ctx, conversationID, selfID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteOwn(ctx context.Context, messageID, senderID string, window time.Duration) error {
	args := m.Called(ctx, messageID, senderID, window)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ClearConversation(ctx context.Context, conversationID string) (int64, error) {
	args := m.Called(ctx, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Toggle(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Bool(0), args.Error(1)
}

func (m *ReactionRepositoryMock) ListForMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var out []models.Reaction
	if val := args.Get(0); val != nil {
		out = val.([]models.Reaction)
	}
	return out, args.Error(1)
}
