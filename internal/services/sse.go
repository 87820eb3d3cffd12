package services

import (
	"sync"
	"time"

	"github.com/huangang/gymdesk/internal/metrics"
)

// ChangeEvent tells dashboards which collection to re-list after a mutation.
type ChangeEvent struct {
	Entity string    `json:"entity"` // members, bills, notifications, supplements, diets
	Action string    `json:"action"` // created, updated, deleted
	ID     uint      `json:"id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Count  int       `json:"count,omitempty"`
	Ts     time.Time `json:"ts"`
}

// SSEHub manages SSE client connections and event broadcasting
type SSEHub struct {
	clients map[string]chan ChangeEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan ChangeEvent),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID string) <-chan ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old)
	} else {
		metrics.SSEClients.Inc()
	}
	ch := make(chan ChangeEvent, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
		metrics.SSEClients.Dec()
	}
}

// Publish sends event to every client. Slow clients miss events rather than
// block the publisher. A nil hub drops the event.
func (h *SSEHub) Publish(event ChangeEvent) {
	if h == nil {
		return
	}
	if event.Ts.IsZero() {
		event.Ts = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
