package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/observability"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
	"github.com/clovisbarbosajr/navarro-connect/internal/telemetry"
	"github.com/clovisbarbosajr/navarro-connect/internal/ws"
)

const (
	defaultPageSize = 30
	maxPageSize     = 100
	deleteWindow    = 5 * time.Minute
)

// MessageHandler serves message history, sending, read receipts, deletion
// and reactions for a single conversation.
type MessageHandler struct {
	messageRepo      repositories.MessageRepository
	conversationRepo repositories.ConversationRepository
	profileRepo      repositories.ProfileRepository
	reactionRepo     repositories.ReactionRepository
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(
	messageRepo repositories.MessageRepository,
	conversationRepo repositories.ConversationRepository,
	profileRepo repositories.ProfileRepository,
	reactionRepo repositories.ReactionRepository,
	hub *ws.Hub,
	audit *telemetry.AuditEmitter,
) *MessageHandler {
	return &MessageHandler{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		profileRepo:      profileRepo,
		reactionRepo:     reactionRepo,
		hub:              hub,
		audit:            audit,
	}
}

type messageWithSender struct {
	models.Message
	Sender *models.Profile `json:"sender,omitempty"`
}

// GetMessages returns one page of history in chronological order. Pages are
// fetched newest first behind the before/before_id cursor and reversed, so
// the oldest page lands with messages already ascending.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")

	if _, ok := h.requireMembership(c, conversationID, userID); !ok {
		return
	}

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		limit = parsed
	}

	var before *time.Time
	beforeID := c.Query("before_id")
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
			return
		}
		if beforeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before_id is required with before"})
			return
		}
		before = &parsed
	}

	msgs, err := h.messageRepo.PageBefore(c.Request.Context(), conversationID, before, beforeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	// Reverse the newest-first page so clients render chronologically.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	enriched, err := h.attachSenders(c, msgs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}

	resp := gin.H{"messages": enriched, "has_more": len(msgs) == limit}
	if len(msgs) > 0 {
		resp["next_before"] = msgs[0].CreatedAt.Format(time.RFC3339Nano)
		resp["next_before_id"] = msgs[0].ID
	}
	c.JSON(http.StatusOK, resp)
}

// PostMessage stores a message and fans it out to the room. A message needs
// text content, an attachment, or both.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")

	conv, ok := h.requireMembership(c, conversationID, userID)
	if !ok {
		return
	}

	var req struct {
		Content        string  `json:"content"`
		AttachmentURL  *string `json:"attachment_url"`
		AttachmentName *string `json:"attachment_name"`
		AttachmentMime *string `json:"attachment_mime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && (req.AttachmentURL == nil || *req.AttachmentURL == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message needs content or an attachment"})
		return
	}

	msg, err := h.messageRepo.Insert(c.Request.Context(), models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
		AttachmentMime: req.AttachmentMime,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "message insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	if err := h.conversationRepo.BumpUpdatedAt(c.Request.Context(), conversationID); err != nil {
		// Ordering of the conversation list self-heals on the next message.
		h.emitAudit(c, "WARN", "failed to bump conversation activity")
	}

	h.hub.BroadcastMessage(conversationID, msg)
	observability.IncMessageSent(conv.Kind)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead stamps every unread message from other senders and notifies the
// room. Safe to call repeatedly; repeats match zero rows and broadcast
// nothing.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")

	if _, ok := h.requireMembership(c, conversationID, userID); !ok {
		return
	}

	updated, err := h.messageRepo.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark as read"})
		return
	}
	if updated > 0 {
		h.hub.BroadcastRead(conversationID, userID, time.Now().UTC())
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteMessage removes the caller's own message while still inside the
// delete window.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")
	messageID := c.Param("messageID")

	if _, ok := h.requireMembership(c, conversationID, userID); !ok {
		return
	}

	msg, err := h.messageRepo.GetByID(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load message"})
		return
	}
	if msg.ConversationID != conversationID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can delete a message"})
		return
	}

	if err := h.messageRepo.DeleteOwn(c.Request.Context(), messageID, userID, deleteWindow); err != nil {
		if errors.Is(err, repositories.ErrDeleteWindowClosed) {
			c.JSON(http.StatusForbidden, gin.H{"error": "delete window closed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	h.hub.BroadcastDeletion(conversationID, messageID)
	h.emitAudit(c, "INFO", "message deleted")
	c.Status(http.StatusNoContent)
}

// ClearMessages wipes a conversation's full history. Admin only; the route
// carries the AdminOnly middleware.
func (h *MessageHandler) ClearMessages(c *gin.Context) {
	conversationID := c.Param("conversationID")

	if _, err := h.conversationRepo.Get(c.Request.Context(), conversationID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}

	deleted, err := h.messageRepo.ClearConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear conversation"})
		return
	}

	h.hub.BroadcastClear(conversationID)
	h.emitAudit(c, "WARN", "conversation history cleared")
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ToggleReaction adds the caller's emoji reaction, or removes it when
// already present.
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	userID := c.GetString("userID")
	conversationID := c.Param("conversationID")
	messageID := c.Param("messageID")

	if _, ok := h.requireMembership(c, conversationID, userID); !ok {
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := h.reactionRepo.Toggle(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle reaction"})
		return
	}

	reactions, err := h.reactionRepo.ListForMessage(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load reactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "reactions": reactions})
}

// requireMembership resolves the conversation and rejects non-participants.
// Writes the error response itself and reports whether the caller may
// proceed.
func (h *MessageHandler) requireMembership(c *gin.Context, conversationID, userID string) (models.Conversation, bool) {
	conv, err := h.conversationRepo.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return models.Conversation{}, false
	}
	member, err := h.conversationRepo.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check membership"})
		return models.Conversation{}, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return models.Conversation{}, false
	}
	return conv, true
}

func (h *MessageHandler) attachSenders(c *gin.Context, msgs []models.Message) ([]messageWithSender, error) {
	if len(msgs) == 0 {
		return []messageWithSender{}, nil
	}
	senderIDs := make([]string, 0, len(msgs))
	seen := map[string]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	profiles, err := h.profileRepo.ListByIDs(c.Request.Context(), senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	out := make([]messageWithSender, 0, len(msgs))
	for _, m := range msgs {
		item := messageWithSender{Message: m}
		if p, ok := byID[m.SenderID]; ok {
			sender := p
			item.Sender = &sender
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
