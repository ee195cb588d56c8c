package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aqualedger/aqualedger/pkg/log"
)

const (
	// TypeFrame carries a types.StreamFrame.
	TypeFrame = "stream:frame"
	// TypeReport carries the regenerated report lines after a cycle.
	TypeReport = "report:updated"
)

// Envelope wraps all websocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// Client represents a connected websocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub manages websocket clients and broadcasts messages. It remembers the
// last broadcast frame so new clients get something immediately.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	lastFrame []byte
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if h.lastFrame != nil {
		select {
		case c.send <- h.lastFrame:
		default:
		}
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast encodes payload in an envelope of msgType and queues it for
// every client. Clients with a full buffer miss the message.
func (h *Hub) Broadcast(ctx context.Context, msgType string, payload any) error {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if msgType == TypeFrame {
		h.lastFrame = msg
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Ctx(ctx).DebugContext(ctx, "client buffer full, dropping message", slog.String("type", msgType))
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
