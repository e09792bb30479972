package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clovisbarbosajr/navarro-connect/internal/mocks"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
)

func setupConversationRouter(handler *ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations/direct", handler.StartDirect)
	r.POST("/conversations/group", handler.CreateGroup)
	return r
}

func TestStartDirectReturnsSameConversationBothWays(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), profileRepo, nil)
	router := setupConversationRouter(handler)

	profileRepo.On("GetByID", mock.Anything, "u2").Return(models.Profile{ID: "u2"}, nil).Twice()
	convRepo.On("StartDirect", mock.Anything, "u1", "u2").Return(models.Conversation{ID: "c9", Kind: models.KindDirect}, nil).Twice()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/conversations/direct", bytes.NewBufferString(`{"other_user_id":"u2"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "c9", resp["conversation_id"])
	}

	convRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestStartDirectWithSelfRejected(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), profileRepo, nil)
	router := setupConversationRouter(handler)

	profileRepo.On("GetByID", mock.Anything, "u1").Return(models.Profile{ID: "u1"}, nil).Once()
	convRepo.On("StartDirect", mock.Anything, "u1", "u1").Return(models.Conversation{}, repositories.ErrSelfConversation).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/direct", bytes.NewBufferString(`{"other_user_id":"u1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestStartDirectUnknownUser(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), profileRepo, nil)
	router := setupConversationRouter(handler)

	profileRepo.On("GetByID", mock.Anything, "ghost").Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/direct", bytes.NewBufferString(`{"other_user_id":"ghost"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestCreateGroupRequiresNameAndMembers(t *testing.T) {
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), nil)
	router := setupConversationRouter(handler)

	cases := []string{
		`{"name":"  ","member_ids":["u2"]}`,
		`{"name":"Planning","member_ids":[]}`,
		`{"name":"Planning","member_ids":["u1"]}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/conversations/group", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestCreateGroupSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), nil)
	router := setupConversationRouter(handler)

	convRepo.On("CreateGroup", mock.Anything, "u1", "Planning", []string{"u2", "u3"}).
		Return(models.Conversation{ID: "g1", Kind: models.KindGroup}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/group", bytes.NewBufferString(`{"name":"Planning","member_ids":["u2","u3"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestListConversationsAssemblesSummaries(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewConversationHandler(convRepo, msgRepo, profileRepo, nil)
	router := setupConversationRouter(handler)

	convRepo.On("ListForUser", mock.Anything, "u1").
		Return([]models.Conversation{{ID: "c1", Kind: models.KindDirect}}, nil).Once()
	convRepo.On("ParticipantsFor", mock.Anything, []string{"c1"}).
		Return([]models.Participant{
			{ConversationID: "c1", UserID: "u1"},
			{ConversationID: "c1", UserID: "u2"},
		}, nil).Once()
	profileRepo.On("ListByIDs", mock.Anything, []string{"u1", "u2"}).
		Return([]models.Profile{{ID: "u1", DisplayName: "Ana"}, {ID: "u2", DisplayName: "Bruno"}}, nil).Once()
	msgRepo.On("LastPerConversation", mock.Anything, []string{"c1"}).
		Return([]models.Message{{ID: "m5", ConversationID: "c1", SenderID: "u2", Content: "oi"}}, nil).Once()
	msgRepo.On("UnreadCounts", mock.Anything, []string{"c1"}, "u1").
		Return([]repositories.UnreadCount{{ConversationID: "c1", Count: 3}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, 3, resp.Conversations[0].UnreadCount)
	assert.Len(t, resp.Conversations[0].Participants, 2)
	require.NotNil(t, resp.Conversations[0].LastMessage)
	assert.Equal(t, "m5", resp.Conversations[0].LastMessage.ID)

	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestListConversationsRepoError(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), nil)
	router := setupConversationRouter(handler)

	convRepo.On("ListForUser", mock.Anything, "u1").Return(([]models.Conversation)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	convRepo.AssertExpectations(t)
}
