package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types
const (
	EventCropLogReminder = "crop_log_reminder"
	EventPing            = "ping"
)

// Event is a notification for one user
type Event struct {
	UserID    uuid.UUID   `json:"-"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans events out to each user's connected Server-Sent Events clients.
// Slow clients drop events rather than block publishers.
type Hub struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID]map[chan Event]struct{}
	buffer    int
	keepAlive time.Duration
	logger    *zap.Logger
}

// NewHub creates a hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[uuid.UUID]map[chan Event]struct{}),
		buffer:    16,
		keepAlive: 30 * time.Second,
		logger:    logger.Named("notify"),
	}
}

// Subscribe registers a client for userID. The returned func unregisters it
// and closes the channel.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan Event]struct{})
	}
	h.clients[userID][ch] = struct{}{}
	total := len(h.clients[userID])
	h.mu.Unlock()
	h.logger.Debug("client subscribed", zap.String("user_id", userID.String()), zap.Int("clients", total))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if clients, ok := h.clients[userID]; ok {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.clients, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish delivers an event to the user's clients and reports how many
// received it
func (h *Hub) Publish(event Event) int {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for ch := range h.clients[event.UserID] {
		select {
		case ch <- event:
			delivered++
		default:
			h.logger.Warn("client channel full, dropping event",
				zap.String("user_id", event.UserID.String()),
				zap.String("type", event.Type))
		}
	}
	return delivered
}

// Notify publishes a typed payload to a user
func (h *Hub) Notify(userID uuid.UUID, eventType string, data interface{}) {
	h.Publish(Event{UserID: userID, Type: eventType, Data: data})
}

// ClientCount returns the number of connected clients for a user
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stream serves an event stream for userID until the request ends
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.Subscribe(userID)
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event := <-events:
			if err := writeEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		case t := <-ticker.C:
			if err := writeEvent(w, Event{Type: EventPing, Timestamp: t.UTC()}); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
