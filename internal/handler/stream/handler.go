package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler streams store events to the widget via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, heartbeat: defaultHeartbeat}
}

// ServeHTTP opens the event stream. An optional ?session= narrows events to one session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.HandleStreamRequest(r.Context(), w, r.URL.Query().Get("session")); err != nil {
		logging.Component("sse").Warn().Err(err).Msg("stream ended with error")
	}
}

// HandleStreamRequest writes events until ctx ends.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	events, unsubscribe := h.chatSvc.Subscribe(64)
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "state", h.chatSvc.Snapshot(ctx)); err != nil {
		return err
	}
	logging.Component("sse").Debug().Str("session", sessionID).Msg("stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Component("sse").Debug().Str("session", sessionID).Msg("stream closed")
			return nil
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return err
			}
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if !matches(evt, sessionID) {
				continue
			}
			if err := utils.SendSSEEvent(w, flusher, string(evt.Type), evt); err != nil {
				return err
			}
		}
	}
}

// matches keeps session-scoped events for sessionID plus all global ones.
func matches(evt chatService.Event, sessionID string) bool {
	if sessionID == "" || evt.SessionID == "" {
		return true
	}
	return evt.SessionID == sessionID
}
