package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	"github.com/zhouzirui/arogya-chat/backend/pkg/utils"
)

// Handler serves language and quick-topic metadata for the widget controls.
type Handler struct {
	catalog catalog.Store
	active  func(r *http.Request) chat.Language
}

// New creates the catalog handler. active reports the language used when a request names none.
func New(store catalog.Store, active func(r *http.Request) chat.Language) *Handler {
	return &Handler{
		catalog: store,
		active:  active,
	}
}

// RegisterRoutes mounts the catalog routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleListLanguages)
	r.Get("/topics", h.handleQuickTopics)
}

type languageInfo struct {
	Code       chat.Language `json:"code"`
	Name       string        `json:"name"`
	Flag       string        `json:"flag"`
	Translated bool          `json:"translated"`
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	translated := make(map[chat.Language]bool)
	for _, lang := range h.catalog.Languages() {
		translated[lang] = true
	}

	languages := make([]languageInfo, 0, len(chat.Languages()))
	for _, lang := range chat.Languages() {
		languages = append(languages, languageInfo{
			Code:       lang,
			Name:       lang.Name(),
			Flag:       lang.Flag(),
			Translated: translated[lang],
		})
	}
	utils.RespondJSON(w, http.StatusOK, languages)
}

func (h *Handler) handleQuickTopics(w http.ResponseWriter, r *http.Request) {
	lang := chat.DefaultLanguage
	if h.active != nil {
		lang = h.active(r)
	}
	if raw := r.URL.Query().Get("language"); raw != "" {
		parsed, err := chat.ParseLanguage(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"language":    lang,
		"topics":      h.catalog.QuickTopics(lang),
		"placeholder": h.catalog.Placeholder(lang),
	})
}
