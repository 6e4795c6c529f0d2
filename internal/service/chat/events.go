package chat

import (
	"sync"
	"time"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// EventType names a change published by the Service.
type EventType string

const (
	EventSessionCreated  EventType = "session_created"
	EventSessionSelected EventType = "session_selected"
	EventMessage         EventType = "message"
	EventTyping          EventType = "typing"
	EventLanguage        EventType = "language"
	EventTheme           EventType = "theme"
	EventNotice          EventType = "notice"
)

// Notice is a transient, user-visible confirmation (a toast in the widget).
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Event is what subscribers (SSE, WebSocket, console) render from.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId,omitempty"`
	Session   *chat.Session `json:"session,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Typing    *bool         `json:"typing,omitempty"`
	Language  chat.Language `json:"language,omitempty"`
	Theme     Theme         `json:"theme,omitempty"`
	Notice    *Notice       `json:"notice,omitempty"`
	Time      time.Time     `json:"time"`
}

// Hub fans events out to subscribers without ever blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers evt to every subscriber with room in its buffer.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			logging.Component("events").Warn().
				Uint64("subscriber", id).
				Str("event", string(evt.Type)).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
