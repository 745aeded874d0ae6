package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes layout events to Redis for cross-instance broadcast.
type Publisher interface {
	PublishLayoutEvent(event string, payload []byte) error
}

// Subscriber subscribes to the layout channel and invokes handler for
// incoming events from other instances.
type Subscriber interface {
	SubscribeLayout(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected floor-plan clients and fans layout
// change events out to them. Redis pub/sub carries events across instances.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	pub     Publisher
	cancel  func()
}

// NewHub creates a layout event hub and starts the Redis subscription when a
// subscriber is given.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
	}
	if sub != nil {
		cancel, err := sub.SubscribeLayout(func(event string, payload []byte) {
			h.broadcastLocal(event, json.RawMessage(payload))
		})
		if err != nil {
			logger.Warn("layout feed redis subscription failed", zap.Error(err))
		} else {
			h.cancel = cancel
		}
	}
	return h
}

// Close stops the Redis subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("layout client connected", zap.String("client_id", c.ID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("layout client disconnected", zap.String("client_id", c.ID))
}

// Broadcast sends a layout event to every connected client on every instance.
// With Redis wired it publishes only; the subscription callback performs the
// single local broadcast, so local clients never see the event twice.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.pub != nil {
		_ = h.pub.PublishLayoutEvent(event, data)
		return
	}
	h.broadcastLocal(event, json.RawMessage(data))
}

func (h *Hub) broadcastLocal(event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
