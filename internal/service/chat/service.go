package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyContent    = errors.New("message content is empty")
)

const titlePrefix = "Health Chat"

// Snapshot is a read-only view of the widget-level state.
type Snapshot struct {
	CurrentSessionID string        `json:"currentSessionId"`
	Language         chat.Language `json:"language"`
	Theme            Theme         `json:"theme"`
	Typing           bool          `json:"typing"`
	SessionCount     int           `json:"sessionCount"`
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service encapsulates conversation state management.
type Service struct {
	mu      sync.RWMutex
	state   State
	catalog catalog.Store
	hub     *Hub
	now     func() time.Time
}

// NewService bootstraps the in-memory store with lang as the active language.
func NewService(cat catalog.Store, lang chat.Language, opts ...Option) *Service {
	if !lang.Valid() {
		lang = chat.DefaultLanguage
	}
	s := &Service{
		state:   NewState(lang),
		catalog: cat,
		hub:     NewHub(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// CreateSession provisions a session seeded with a greeting in lang and makes it current.
func (s *Service) CreateSession(_ context.Context, lang chat.Language) (chat.Session, error) {
	if !lang.Valid() {
		return chat.Session{}, fmt.Errorf("%w: %q", chat.ErrUnknownLanguage, lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.newSessionLocked(lang)
	s.state = s.state.CreateSession(session)
	s.publishCreatedLocked(session)
	return session.Clone(), nil
}

// EnsureSession guarantees a current session exists, creating one in the active language if needed.
func (s *Service) EnsureSession(_ context.Context) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.state.Current(); ok {
		return current, nil
	}
	if first := s.state.Sessions(); len(first) > 0 {
		s.state, _ = s.state.SelectSession(first[0].ID)
		return first[0], nil
	}

	session := s.newSessionLocked(s.state.Language())
	s.state = s.state.CreateSession(session)
	s.publishCreatedLocked(session)
	return session.Clone(), nil
}

func (s *Service) newSessionLocked(lang chat.Language) chat.Session {
	now := s.now()
	id := NewID()

	greeting := s.catalog.Resolve(lang, catalog.Greeting)
	message := chat.Message{
		ID:        NewID(),
		SessionID: id,
		Content:   greeting.Text,
		Sender:    chat.SenderBot,
		Timestamp: now,
		Type:      chat.TypeText,
		Language:  lang,
	}

	return chat.Session{
		ID:          id,
		Title:       fmt.Sprintf("%s %d", titlePrefix, s.state.Len()+1),
		Messages:    []chat.Message{message},
		Language:    lang,
		LastUpdated: now,
	}
}

func (s *Service) publishCreatedLocked(session chat.Session) {
	now := s.now()
	snapshot := session.Clone()
	s.hub.Publish(Event{Type: EventSessionCreated, SessionID: session.ID, Session: &snapshot, Time: now})
	s.hub.Publish(Event{
		Type:      EventNotice,
		SessionID: session.ID,
		Notice: &Notice{
			Title:       "New chat started",
			Description: fmt.Sprintf("Started a new conversation in %s", session.Language.Name()),
		},
		Time: now,
	})
	logging.Component("chat").Info().
		Str("session", session.ID).
		Str("language", string(session.Language)).
		Msg("session created")
}

// SelectSession marks id as current. Unknown ids are ignored and reported as false.
func (s *Service) SelectSession(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.SelectSession(id)
	if !ok {
		logging.Component("chat").Debug().Str("session", id).Msg("ignoring selection of unknown session")
		return false
	}
	s.state = next
	session, _ := next.Session(id)
	snapshot := session.Clone()
	s.hub.Publish(Event{Type: EventSessionSelected, SessionID: id, Session: &snapshot, Time: s.now()})
	return true
}

// AppendMessage stores message at the end of the session's history.
// ID, SessionID, Timestamp and defaults are filled in; the stored copy is returned.
func (s *Service) AppendMessage(_ context.Context, sessionID string, message chat.Message) (chat.Message, error) {
	if strings.TrimSpace(message.Content) == "" {
		return chat.Message{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.state.Session(sessionID)
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.SessionID = sessionID
	if message.ID == "" {
		message.ID = NewID()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}
	if message.Sender == "" {
		message.Sender = chat.SenderUser
	}
	if message.Type == "" {
		message.Type = chat.TypeText
	}
	if message.Language == "" {
		message.Language = session.Language
	}

	s.state, _ = s.state.AppendMessage(sessionID, message)
	stored := message
	s.hub.Publish(Event{Type: EventMessage, SessionID: sessionID, Message: &stored, Time: message.Timestamp})
	return message, nil
}

// SetTyping toggles the typing indicator for a session. Unchanged values publish nothing.
func (s *Service) SetTyping(_ context.Context, sessionID string, typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Typing(sessionID) == typing {
		return
	}
	s.state = s.state.SetTyping(sessionID, typing)
	value := typing
	s.hub.Publish(Event{Type: EventTyping, SessionID: sessionID, Typing: &value, Time: s.now()})
}

// SetLanguage changes the active language used for new sessions and replies.
func (s *Service) SetLanguage(_ context.Context, lang chat.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", chat.ErrUnknownLanguage, lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.state.SetLanguage(lang)
	s.hub.Publish(Event{Type: EventLanguage, Language: lang, Time: s.now()})
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Service) ToggleTheme(_ context.Context) Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	theme := ThemeDark
	if s.state.Theme() == ThemeDark {
		theme = ThemeLight
	}
	s.state = s.state.SetTheme(theme)
	s.hub.Publish(Event{Type: EventTheme, Theme: theme, Time: s.now()})
	return theme
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.state.Session(sessionID)
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Current returns the selected session, if any.
func (s *Service) Current(_ context.Context) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Current()
}

// Sessions lists all sessions, most recent first.
func (s *Service) Sessions(_ context.Context) []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Sessions()
}

// FilterSessions returns sessions matching query by title or message content.
func (s *Service) FilterSessions(_ context.Context, query string) []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Filter(query)
}

// Language returns the active language.
func (s *Service) Language(_ context.Context) chat.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language()
}

// State returns the current immutable model.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot summarizes widget-level state.
func (s *Service) Snapshot(_ context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		CurrentSessionID: s.state.CurrentID(),
		Language:         s.state.Language(),
		Theme:            s.state.Theme(),
		Typing:           s.state.Typing(s.state.CurrentID()),
		SessionCount:     s.state.Len(),
	}
}

// Catalog exposes the response catalog used for greetings.
func (s *Service) Catalog() catalog.Store {
	return s.catalog
}

// Subscribe registers an event listener; call the returned func to stop.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	return s.hub.Subscribe(buffer)
}

// Subscribers reports how many event listeners are attached.
func (s *Service) Subscribers() int {
	return s.hub.Subscribers()
}
