// Package notifications delivers live topic events to WebSocket subscribers.
package notifications

import (
	"context"
	"errors"
	"sync"

	"forum/internal/middleware"
	"forum/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerTopic = 500
	maxTotalConns    = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrTopicFull  = errors.New("topic connection limit reached")
)

// TopicHub maps topicID -> connected clients.
type TopicHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

func NewTopicHub() *TopicHub {
	return &TopicHub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *TopicHub) Name() string { return "topic hub" }

// Register subscribes a connection to a topic feed.
func (h *TopicHub) Register(topicID, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}

	m, ok := h.conns[topicID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[topicID] = m
	}
	if len(m) >= maxConnsPerTopic {
		return nil, ErrTopicFull
	}

	client := NewClient(h, conn, topicID, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.TopicSubscribers.Inc()
	return client, nil
}

func (h *TopicHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.TopicID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		close(client.Send)
		h.totalConns--
		observability.TopicSubscribers.Dec()
	}
	if len(m) == 0 {
		delete(h.conns, client.TopicID)
	}
}

// Broadcast sends message to every subscriber of topicID.
func (h *TopicHub) Broadcast(topicID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[topicID] {
		c.TrySend(message)
	}
}

// Subscribers returns the number of clients following topicID.
func (h *TopicHub) Subscribers(topicID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[topicID])
}

// StartWiring forwards topic events received from Redis to local clients.
func (h *TopicHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartTopicSubscriber(ctx, func(channel, payload string) {
		topicID, ok := ParseTopicChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid topic channel", "channel", channel)
			return
		}
		h.Broadcast(topicID, []byte(payload))
	})
}

// Shutdown closes every client's send queue and refuses new clients. Each
// WritePump then sends the close frame and closes its own connection.
func (h *TopicHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.TopicSubscribers.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
