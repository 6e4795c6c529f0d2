package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Limits bounds inbound messages per connection.
type Limits struct {
	PerSecond float64
	Burst     int
}

// Handler is the live widget channel: inbound user actions, outbound store events.
type Handler struct {
	chatSvc    *chatService.Service
	dispatcher *dispatch.Service
	limits     Limits
	upgrader   websocket.Upgrader
}

// New creates the WebSocket handler. An empty origins list accepts every origin.
func New(chatSvc *chatService.Service, dispatcher *dispatch.Service, limits Limits, origins []string) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	if limits.PerSecond <= 0 {
		limits.PerSecond = 5
	}
	if limits.Burst < 1 {
		limits.Burst = 10
	}

	return &Handler{
		chatSvc:    chatSvc,
		dispatcher: dispatcher,
		limits:     limits,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage sends user text; SessionID defaults to the current session.
type TextMessage struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

// CreateMessage starts a new session.
type CreateMessage struct {
	Language string `json:"language"`
}

// SelectMessage switches the current session.
type SelectMessage struct {
	SessionID string `json:"sessionId"`
}

// LanguageMessage changes the active language.
type LanguageMessage struct {
	Language string `json:"language"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(msgType string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	if err := c.ws.WriteJSON(msg); err != nil {
		logging.Component("websocket").Debug().Err(err).Msg("write failed")
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (c *conn) sendError(message string) {
	c.send("error", map[string]string{"message": message})
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if _, err := h.chatSvc.EnsureSession(r.Context()); err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Component("websocket").Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer ws.Close()
	c := &conn{ws: ws}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.chatSvc.Subscribe(64)
	defer unsubscribe()

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)
	go h.forwardEvents(ctx, c, events)

	c.send("connected", h.chatSvc.Snapshot(ctx))
	logging.Component("websocket").Info().Str("remote", r.RemoteAddr).Msg("client connected")

	limiter := rate.NewLimiter(rate.Limit(h.limits.PerSecond), h.limits.Burst)
	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Component("websocket").Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		if !limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}
		h.handleMessage(ctx, c, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleText(ctx, c, msg.Data)
	case "create":
		h.handleCreate(ctx, c, msg.Data)
	case "select":
		h.handleSelect(ctx, c, msg.Data)
	case "language":
		h.handleLanguage(ctx, c, msg.Data)
	case "theme":
		h.chatSvc.ToggleTheme(ctx)
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *Handler) handleText(ctx context.Context, c *conn, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		c.sendError("invalid text payload")
		return
	}

	_, err := h.dispatcher.Send(ctx, text.SessionID, text.Text)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrEmptyMessage), errors.Is(err, dispatch.ErrNoActiveSession):
		// Silently ignored, the widget disables send for these.
	case errors.Is(err, chatService.ErrSessionNotFound):
		c.sendError("session not found")
	default:
		logging.Component("websocket").Error().Err(err).Msg("send failed")
		c.sendError("send failed")
	}
}

func (h *Handler) handleCreate(ctx context.Context, c *conn, raw json.RawMessage) {
	var create CreateMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &create); err != nil {
			c.sendError("invalid create payload")
			return
		}
	}

	lang := h.chatSvc.Language(ctx)
	if create.Language != "" {
		parsed, err := chat.ParseLanguage(create.Language)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		lang = parsed
	}

	if _, err := h.chatSvc.CreateSession(ctx, lang); err != nil {
		c.sendError(err.Error())
	}
}

func (h *Handler) handleSelect(ctx context.Context, c *conn, raw json.RawMessage) {
	var sel SelectMessage
	if err := json.Unmarshal(raw, &sel); err != nil {
		c.sendError("invalid select payload")
		return
	}
	h.chatSvc.SelectSession(ctx, sel.SessionID)
}

func (h *Handler) handleLanguage(ctx context.Context, c *conn, raw json.RawMessage) {
	var msg LanguageMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("invalid language payload")
		return
	}
	lang, err := chat.ParseLanguage(msg.Language)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := h.chatSvc.SetLanguage(ctx, lang); err != nil {
		c.sendError(err.Error())
	}
}

func (h *Handler) forwardEvents(ctx context.Context, c *conn, events <-chan chatService.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.send("event", evt)
		}
	}
}

// pingLoop keeps the connection alive through proxies.
func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
