// Package ws tracks live websocket subscribers per conversation and fans
// out newly created messages to them.
package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/metrics"
)

// Hub is an in-process subscription registry keyed by conversation id.
// Subscriptions are ephemeral: never persisted, never shared across
// restarts. Delivery is best-effort; a failed send prunes the subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[Conn]struct{}
	logger      *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[Conn]struct{}),
		logger:      log,
	}
}

// Subscribe registers conn for the conversation, creating the subscriber
// set on first join.
func (h *Hub) Subscribe(conn Conn, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[conversationID]
	if !ok {
		set = make(map[Conn]struct{})
		h.subscribers[conversationID] = set
	}
	set[conn] = struct{}{}
}

// Unsubscribe removes conn from the conversation. The conversation entry is
// dropped once its last subscriber leaves, bounding memory to active
// conversations.
func (h *Hub) Unsubscribe(conn Conn, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[conversationID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.subscribers, conversationID)
	}
}

// Subscribers returns the current subscriber count for the conversation.
func (h *Hub) Subscribers(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[conversationID])
}

// Broadcast delivers payload to every current subscriber of the
// conversation. A connection whose send fails is treated as disconnected
// and removed; delivery to the remaining subscribers continues. The
// registry lock is never held across a network send, so slow sockets cannot
// stall subscribe/unsubscribe.
func (h *Hub) Broadcast(conversationID string, payload any) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.subscribers[conversationID]))
	for conn := range h.subscribers[conversationID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			h.logger.Debug("pruning dead subscriber",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			h.Unsubscribe(conn, conversationID)
			metrics.BroadcastPrunesTotal.Inc()
			continue
		}
		metrics.BroadcastDeliveriesTotal.Inc()
	}
}
