package http

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event is emitted to connected admin clients via SSE.
type Event struct {
	Event string `json:"event"`
}

// Hub fans events out to every connected admin client. It implements the
// supervisor's Notifier port: after each new active presentation a reload
// event is broadcast so open status pages refresh themselves.
type Hub struct {
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[string]chan Event
}

// NewHub creates an empty event hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{logger: logger, subscribers: map[string]chan Event{}}
}

// Subscribe registers a client and returns its event channel plus a cleanup
// callback.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, 8)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// TriggerReload broadcasts a reload event. Slow clients are skipped rather
// than blocking the supervisor loop.
func (h *Hub) TriggerReload() {
	h.logger.Printf("content changed: notifying connected clients")
	h.broadcast(Event{Event: "reload"})
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subscriber := range h.subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
