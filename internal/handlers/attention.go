package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clovisbarbosajr/navarro-connect/internal/attention"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/observability"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
	"github.com/clovisbarbosajr/navarro-connect/internal/telemetry"
	"github.com/clovisbarbosajr/navarro-connect/internal/ws"
)

const attentionContent = "🔔 Attention requested"

// AttentionHandler serves attention alerts: a loud, rate-limited nudge that
// lands as a regular message flagged is_attention so history replays it.
type AttentionHandler struct {
	messageRepo      repositories.MessageRepository
	conversationRepo repositories.ConversationRepository
	limiter          *attention.Limiter
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
}

// NewAttentionHandler builds an AttentionHandler.
func NewAttentionHandler(
	messageRepo repositories.MessageRepository,
	conversationRepo repositories.ConversationRepository,
	limiter *attention.Limiter,
	hub *ws.Hub,
	audit *telemetry.AuditEmitter,
) *AttentionHandler {
	return &AttentionHandler{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		limiter:          limiter,
		hub:              hub,
		audit:            audit,
	}
}

// SendAttention sends an attention alert into the conversation. The limiter
// runs before anything is stored, so a rejected alert leaves no trace in
// history.
func (h *AttentionHandler) SendAttention(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")

	conv, err := h.conversationRepo.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	member, err := h.conversationRepo.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	retryAt, err := h.limiter.TryConsume(userID + ":" + conversationID)
	if err != nil {
		observability.IncAttentionRejected()
		h.emitAudit(c, "WARN", "attention alert rate limited")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":    "attention limit reached",
			"retry_at": retryAt.UTC().Format(time.RFC3339),
		})
		return
	}

	msg, err := h.messageRepo.Insert(c.Request.Context(), models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        attentionContent,
		IsAttention:    true,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "attention insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send attention alert"})
		return
	}

	if err := h.conversationRepo.BumpUpdatedAt(c.Request.Context(), conversationID); err != nil {
		h.emitAudit(c, "WARN", "failed to bump conversation activity")
	}

	h.hub.BroadcastMessage(conversationID, msg)
	observability.IncMessageSent(conv.Kind)
	h.emitAudit(c, "INFO", "attention alert sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *AttentionHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
