package telemetry

import (
	"encoding/json"
	"sync"
	"time"
)

// Payload is one operator-facing event: review lifecycle progress or
// per-move governance telemetry.
type Payload struct {
	Event        string          `json:"event"`
	ReviewID     string          `json:"review_id,omitempty"`
	Tier         string          `json:"tier,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Ply          int             `json:"ply,omitempty"`
	LatencyMs    int64           `json:"latency_ms,omitempty"`
	FallbackUsed bool            `json:"fallback_used,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	UpdatedAt    int64           `json:"updated_at_ms"`
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Client struct {
	hub  *Hub
	send chan []byte
}

type Hub struct {
	mu        sync.Mutex
	clients   map[*Client]struct{}
	broadcast chan Payload
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Payload, 64),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			if len(h.clients) == 0 {
				h.mu.Unlock()
				continue
			}
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "telemetry", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

// Publish never blocks; a full broadcast buffer drops the event.
func (h *Hub) Publish(payload Payload) {
	if payload.UpdatedAt == 0 {
		payload.UpdatedAt = time.Now().UnixMilli()
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
