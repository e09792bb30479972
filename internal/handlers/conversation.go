package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
	"github.com/clovisbarbosajr/navarro-connect/internal/telemetry"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	profileRepo      repositories.ProfileRepository
	audit            *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversationRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, profileRepo repositories.ProfileRepository, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		profileRepo:      profileRepo,
		audit:            audit,
	}
}

// StartDirect creates or returns the direct conversation with another user.
// Idempotent from either side of the pair.
func (h *ConversationHandler) StartDirect(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		OtherUserID string `json:"other_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.profileRepo.GetByID(c.Request.Context(), req.OtherUserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	conv, err := h.conversationRepo.StartDirect(c.Request.Context(), userID, req.OtherUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrSelfConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// CreateGroup creates a named group conversation.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	members := make([]string, 0, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		if id != "" && id != userID {
			members = append(members, id)
		}
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name is required"})
		return
	}
	if len(members) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one member is required"})
		return
	}

	conv, err := h.conversationRepo.CreateGroup(c.Request.Context(), userID, req.Name, members)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, gin.H{"conversation_id": conv.ID})
}

// ListConversations assembles the conversation list the widget renders:
// conversations the caller participates in, newest activity first, enriched
// with participant profiles, last message and unread count. Enrichment runs
// as three batched queries over the whole page, never per conversation.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userID")

	convs, err := h.conversationRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	convIDs := make([]string, 0, len(convs))
	for _, conv := range convs {
		convIDs = append(convIDs, conv.ID)
	}

	parts, err := h.conversationRepo.ParticipantsFor(c.Request.Context(), convIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participants"})
		return
	}

	memberIDs := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, p := range parts {
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			memberIDs = append(memberIDs, p.UserID)
		}
	}

	profiles, err := h.profileRepo.ListByIDs(c.Request.Context(), memberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profiles"})
		return
	}
	profileByID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	lastMessages, err := h.messageRepo.LastPerConversation(c.Request.Context(), convIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	lastByConv := make(map[string]models.Message, len(lastMessages))
	for _, m := range lastMessages {
		lastByConv[m.ConversationID] = m
	}

	unread, err := h.messageRepo.UnreadCounts(c.Request.Context(), convIDs, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unread counts"})
		return
	}
	unreadByConv := make(map[string]int, len(unread))
	for _, u := range unread {
		unreadByConv[u.ConversationID] = u.Count
	}

	participantsByConv := make(map[string][]models.Profile, len(convs))
	for _, p := range parts {
		if profile, ok := profileByID[p.UserID]; ok {
			participantsByConv[p.ConversationID] = append(participantsByConv[p.ConversationID], profile)
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := models.ConversationSummary{
			Conversation: conv,
			Participants: participantsByConv[conv.ID],
			UnreadCount:  unreadByConv[conv.ID],
		}
		if last, ok := lastByConv[conv.ID]; ok {
			msg := last
			summary.LastMessage = &msg
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h *ConversationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
