package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clovisbarbosajr/navarro-connect/internal/attention"
	"github.com/clovisbarbosajr/navarro-connect/internal/mocks"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/ws"
)

func setupAttentionRouter(handler *AttentionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.POST("/conversations/:conversationID/attention", handler.SendAttention)
	return r
}

func newAttentionHandler(msgRepo *mocks.MessageRepositoryMock, convRepo *mocks.ConversationRepositoryMock, limiter *attention.Limiter) *AttentionHandler {
	hub := ws.NewHub(time.Second, 3*time.Second)
	return NewAttentionHandler(msgRepo, convRepo, limiter, hub, nil)
}

func sendAttention(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/attention", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSendAttentionBudgetAndCooldown(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)

	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	limiter := attention.NewLimiterWithClock(2, 5*time.Minute, func() time.Time { return clock })
	handler := newAttentionHandler(msgRepo, convRepo, limiter)
	router := setupAttentionRouter(handler)

	convRepo.On("Get", mock.Anything, "c1").Return(models.Conversation{ID: "c1", Kind: models.KindDirect}, nil)
	convRepo.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil)
	msgRepo.On("Insert", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ConversationID == "c1" && m.SenderID == "u1" && m.IsAttention
	})).Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", IsAttention: true}, nil).Times(3)
	convRepo.On("BumpUpdatedAt", mock.Anything, "c1").Return(nil)

	// Two alerts fit in the budget.
	require.Equal(t, http.StatusCreated, sendAttention(router).Code)
	require.Equal(t, http.StatusCreated, sendAttention(router).Code)

	// The third is rejected with the reopen time, and nothing is stored.
	rec := sendAttention(router)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, clock.Add(5*time.Minute).Format(time.RFC3339), resp["retry_at"])

	// After the cooldown the budget reopens.
	clock = clock.Add(5*time.Minute + time.Second)
	require.Equal(t, http.StatusCreated, sendAttention(router).Code)

	msgRepo.AssertExpectations(t)
}

func TestSendAttentionNonParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	limiter := attention.NewLimiter(2, 5*time.Minute)
	handler := newAttentionHandler(new(mocks.MessageRepositoryMock), convRepo, limiter)
	router := setupAttentionRouter(handler)

	convRepo.On("Get", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	convRepo.On("IsParticipant", mock.Anything, "c1", "u1").Return(false, nil).Once()

	rec := sendAttention(router)
	require.Equal(t, http.StatusForbidden, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestSendAttentionBudgetIsPerConversation(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	limiter := attention.NewLimiter(2, 5*time.Minute)
	handler := newAttentionHandler(msgRepo, convRepo, limiter)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	router.POST("/conversations/:conversationID/attention", handler.SendAttention)

	for _, convID := range []string{"c1", "c2"} {
		convRepo.On("Get", mock.Anything, convID).Return(models.Conversation{ID: convID, Kind: models.KindDirect}, nil)
		convRepo.On("IsParticipant", mock.Anything, convID, "u1").Return(true, nil)
		convRepo.On("BumpUpdatedAt", mock.Anything, convID).Return(nil)
	}
	msgRepo.On("Insert", mock.Anything, mock.Anything).
		Return(models.Message{ID: "m1", IsAttention: true}, nil).Times(4)

	// Exhaust c1, then confirm c2 still has its own budget.
	for _, path := range []string{"/conversations/c1/attention", "/conversations/c1/attention", "/conversations/c2/attention", "/conversations/c2/attention"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, "path %s", path)
	}

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/attention", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	msgRepo.AssertExpectations(t)
}
