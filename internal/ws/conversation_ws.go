package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/clovisbarbosajr/navarro-connect/internal/middleware"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/observability"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
)

// ConversationSocketHandler upgrades per-conversation websocket sessions.
type ConversationSocketHandler struct {
	hub              *Hub
	conversationRepo repositories.ConversationRepository
	profileRepo      repositories.ProfileRepository
	jwtSecret        string
}

// NewConversationSocketHandler constructs a ConversationSocketHandler.
func NewConversationSocketHandler(hub *Hub, conversationRepo repositories.ConversationRepository, profileRepo repositories.ProfileRepository, jwtSecret string) *ConversationSocketHandler {
	return &ConversationSocketHandler{
		hub:              hub,
		conversationRepo: conversationRepo,
		profileRepo:      profileRepo,
		jwtSecret:        jwtSecret,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, checks membership, upgrades the connection and
// registers the client. Inbound frames are limited to typing signals;
// everything else arrives over the REST surface.
func (h *ConversationSocketHandler) Handle(c *gin.Context) {
	conversationID := c.Param("conversationID")

	ctx, span := otel.Tracer("navarro-connect/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	// Browser websocket clients cannot set Authorization headers, so the
	// token may arrive as a query parameter instead.
	token := c.GetHeader("Authorization")
	if strings.HasPrefix(token, "Bearer ") || strings.HasPrefix(token, "bearer ") {
		token = token[len("Bearer "):]
	}
	if token == "" {
		token = c.Query("token")
	}

	claims, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	userID := claims.UserID

	conv, err := h.conversationRepo.Get(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	member, err := h.conversationRepo.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for conversation"})
		return
	}

	profile, err := h.profileRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DisplayName: profile.DisplayName,
		Kind:        conv.Kind,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conversationID, conn, info)

	observability.IncWSActive(conv.Kind)
	observability.IncWSEvent(conv.Kind, "ws_connect")
	h.publishLifecycleEvent(ctx, conversationID, info, "ws_connect", "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(conversationID, conn)
			observability.DecWSActive(conv.Kind)
			observability.IncWSEvent(conv.Kind, "ws_disconnect")
			h.publishLifecycleEvent(ctx, conversationID, info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent(conv.Kind, "ws_error")
					h.publishLifecycleEvent(ctx, conversationID, info, "ws_error", closeReason)
				}
				return
			}

			var signal models.TypingSignal
			if err := json.Unmarshal(raw, &signal); err != nil {
				continue
			}
			if signal.Type == models.EventTyping {
				h.hub.HandleTyping(conversationID, userID, profile.DisplayName)
			}
		}
	}()
}

func (h *ConversationSocketHandler) publishLifecycleEvent(ctx context.Context, conversationID string, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":            info.Kind,
			"conversation_id": conversationID,
			"event":           event,
			"conn_id":         info.ConnID,
			"duration_ms":     time.Since(info.ConnectedAt).Milliseconds(),
			"reason":          reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
