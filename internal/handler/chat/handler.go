package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
	"github.com/zhouzirui/arogya-chat/backend/internal/view"
	"github.com/zhouzirui/arogya-chat/backend/pkg/utils"
)

// Handler serves the session list, threads and widget-level state.
type Handler struct {
	chatSvc    *chatService.Service
	dispatcher *dispatch.Service
	loc        *time.Location
}

// New creates the chat handler. A nil loc formats times in UTC.
func New(chatSvc *chatService.Service, dispatcher *dispatch.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		chatSvc:    chatSvc,
		dispatcher: dispatcher,
		loc:        loc,
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/select", h.handleSelectSession)
	r.Post("/messages", h.handleSendMessage)
	r.Get("/state", h.handleState)
	r.Put("/language", h.handleSetLanguage)
	r.Post("/theme/toggle", h.handleToggleTheme)
}

type stateResponse struct {
	chatService.Snapshot
	Placeholder string `json:"placeholder"`
}

func (h *Handler) state(r *http.Request) stateResponse {
	snapshot := h.chatSvc.Snapshot(r.Context())
	return stateResponse{
		Snapshot:    snapshot,
		Placeholder: h.chatSvc.Catalog().Placeholder(snapshot.Language),
	}
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions := h.chatSvc.FilterSessions(ctx, r.URL.Query().Get("q"))
	current := h.chatSvc.Snapshot(ctx).CurrentSessionID

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessions": view.Summaries(sessions, current),
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := h.chatSvc.Language(r.Context())
	if payload.Language != "" {
		parsed, err := chat.ParseLanguage(payload.Language)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	}

	session, err := h.chatSvc.CreateSession(r.Context(), lang)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, view.Session(session, h.loc))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := struct {
		view.SessionView
		Typing bool `json:"typing"`
	}{
		SessionView: view.Session(session, h.loc),
		Typing:      h.chatSvc.State().Typing(session.ID),
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	selected := h.chatSvc.SelectSession(r.Context(), chi.URLParam(r, "sessionID"))
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"selected": selected,
		"state":    h.state(r),
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.dispatcher.Send(r.Context(), payload.SessionID, payload.Text)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrEmptyMessage), errors.Is(err, dispatch.ErrNoActiveSession):
		logging.Component("chat").Debug().Err(err).Msg("message ignored")
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	default:
		logging.Component("chat").Error().Err(err).Msg("send message failed")
		utils.RespondError(w, http.StatusInternalServerError, "send failed")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"message":      view.Message(msg, h.loc),
		"replyDelayMs": h.dispatcher.Delay().Milliseconds(),
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state(r))
}

func (h *Handler) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang, err := chat.ParseLanguage(payload.Language)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.chatSvc.SetLanguage(r.Context(), lang); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.state(r))
}

func (h *Handler) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme := h.chatSvc.ToggleTheme(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]any{"theme": theme})
}

// decodeOptional decodes a JSON body, treating an empty body as an empty object.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
