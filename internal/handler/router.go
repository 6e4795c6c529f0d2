package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	catalogHandler "github.com/zhouzirui/arogya-chat/backend/internal/handler/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/handler/stream"
	"github.com/zhouzirui/arogya-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/arogya-chat/backend/internal/middleware"
	chatModel "github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
	"github.com/zhouzirui/arogya-chat/backend/pkg/utils"
)

// Options tunes the router's outer surface.
type Options struct {
	AllowedOrigins []string
	Location       *time.Location
	WebSocket      ws.Limits
}

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, dispatcher *dispatch.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.AllowOrigins(opts.AllowedOrigins))

	chatHandler := chat.New(chatSvc, dispatcher, opts.Location)
	topicsHandler := catalogHandler.New(chatSvc.Catalog(), func(r *http.Request) chatModel.Language {
		return chatSvc.Language(r.Context())
	})
	streamHandler := stream.New(chatSvc)
	wsHandler := ws.New(chatSvc, dispatcher, opts.WebSocket, opts.AllowedOrigins)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		topicsHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/events", streamHandler.ServeHTTP)
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":      "ok",
				"sessions":    chatSvc.Snapshot(r.Context()).SessionCount,
				"subscribers": chatSvc.Subscribers(),
			})
		})
	})

	return r
}
