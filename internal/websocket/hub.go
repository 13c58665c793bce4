package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event names broadcast when the shared list or the catalog changes.
// Clients refetch the affected collection when one arrives.
const (
	EventEntryCreated   = "entry_created"
	EventEntryDeleted   = "entry_deleted"
	EventEntryPurchased = "entry_purchased"
	EventItemCreated    = "item_created"
)

// Message is a change notification sent to every connected client.
type Message struct {
	Event string `json:"event"`
	ID    int64  `json:"id,omitempty"`
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a change notification to all connected clients.
func (h *Hub) Broadcast(event string, id int64) {
	data, err := json.Marshal(Message{Event: event, ID: id})
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop the message instead of blocking the hub
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
