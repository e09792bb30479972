package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/observability"
	"github.com/clovisbarbosajr/navarro-connect/internal/typing"
)

const wsRoutingKey = "ws_events.conversations"

// Hub maintains active websocket rooms, one per conversation, plus the
// per-conversation typing trackers. Typing state is ephemeral and never
// survives a reconnect.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	typists  map[string]*typing.Tracker
	debounce time.Duration
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewHub creates an empty hub with the given typing debounce and expiry.
func NewHub(typingDebounce, typingTTL time.Duration) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		typists:  make(map[string]*typing.Tracker),
		debounce: typingDebounce,
		ttl:      typingTTL,
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(conversationID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[conversationID][conn] = true
	if _, ok := h.connInfo[conversationID]; !ok {
		h.connInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[conversationID][conn] = info
}

// RemoveClient removes a websocket connection from its room.
func (h *Hub) RemoveClient(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
			if tracker, ok := h.typists[conversationID]; ok {
				tracker.Stop()
				delete(h.typists, conversationID)
			}
		}
	}
	if infos, ok := h.connInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, conversationID)
		}
	}
}

// BroadcastMessage sends a message insert event to all clients in the room.
// Attention messages go out with their own event type so recipients can run
// the shake/sound escalation across tabs. The sender's typing entry is
// dropped since a delivered message supersedes it.
func (h *Hub) BroadcastMessage(conversationID string, msg models.Message) {
	eventType := models.EventMessage
	if msg.IsAttention {
		eventType = models.EventAttention
	}
	h.typingTracker(conversationID).Remove(msg.SenderID)
	h.broadcast(conversationID, models.Event{Type: eventType, Message: &msg}, "")
}

// BroadcastRead notifies the room that the reader consumed the backlog so
// senders can patch read_at on their local copies.
func (h *Hub) BroadcastRead(conversationID, readerID string, readAt time.Time) {
	h.broadcast(conversationID, models.Event{Type: models.EventRead, ReaderID: readerID, ReadAt: &readAt}, "")
}

// BroadcastDeletion notifies clients that a message was removed.
func (h *Hub) BroadcastDeletion(conversationID, messageID string) {
	h.broadcast(conversationID, models.Event{Type: models.EventDelete, MessageID: messageID}, "")
}

// BroadcastClear notifies clients that the full history was wiped.
func (h *Hub) BroadcastClear(conversationID string) {
	h.broadcast(conversationID, models.Event{Type: models.EventClear}, "")
}

// HandleTyping relays a typing signal to the other participants, at most
// once per debounce window per typist. Expiry of the typing window emits a
// typing_stopped event.
func (h *Hub) HandleTyping(conversationID, userID, displayName string) {
	if !h.typingTracker(conversationID).Signal(userID, displayName) {
		return
	}
	h.broadcast(conversationID, models.Event{Type: models.EventTyping, UserID: userID, DisplayName: displayName}, userID)
}

// Typing returns the current typists of a conversation.
func (h *Hub) Typing(conversationID string) []typing.Typist {
	return h.typingTracker(conversationID).Typing()
}

func (h *Hub) typingTracker(conversationID string) *typing.Tracker {
	h.mu.Lock()
	defer h.mu.Unlock()
	tracker, ok := h.typists[conversationID]
	if !ok {
		tracker = typing.NewTracker(h.debounce, h.ttl, func(userID string) {
			h.broadcast(conversationID, models.Event{Type: models.EventTypingStopped, UserID: userID}, userID)
		})
		h.typists[conversationID] = tracker
	}
	return tracker
}

// broadcast writes the event to every connection in the room, skipping
// connections owned by excludeUserID.
func (h *Hub) broadcast(conversationID string, event models.Event, excludeUserID string) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[conversationID]))
	for conn := range h.rooms[conversationID] {
		if excludeUserID != "" {
			if info, ok := h.connInfo[conversationID][conn]; ok && info.UserID == excludeUserID {
				continue
			}
		}
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(conversationID, conn, err)
			h.RemoveClient(conversationID, conn)
		}
	}
}

func (h *Hub) publishWSError(conversationID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(conversationID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":            info.Kind,
			"conversation_id": conversationID,
			"event":           "ws_error",
			"conn_id":         info.ConnID,
			"duration_ms":     time.Since(info.ConnectedAt).Milliseconds(),
			"reason":          err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(info.Kind, "ws_error")
}

func (h *Hub) getConnInfo(conversationID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[conversationID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
