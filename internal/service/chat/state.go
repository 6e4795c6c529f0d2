package chat

import (
	"strings"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// Theme is the widget colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// State is the whole widget model. Transitions return a new State and never
// modify the receiver, so older snapshots stay valid.
type State struct {
	sessions  []chat.Session
	currentID string
	language  chat.Language
	theme     Theme
	typing    map[string]bool
}

// NewState returns an empty model with the given active language.
func NewState(lang chat.Language) State {
	return State{language: lang, theme: ThemeLight}
}

// CreateSession prepends session and makes it current.
func (s State) CreateSession(session chat.Session) State {
	sessions := make([]chat.Session, 0, len(s.sessions)+1)
	sessions = append(sessions, session.Clone())
	sessions = append(sessions, s.sessions...)
	s.sessions = sessions
	s.currentID = session.ID
	return s
}

// SelectSession makes id current. Unknown ids leave the state untouched.
func (s State) SelectSession(id string) (State, bool) {
	if s.index(id) < 0 {
		return s, false
	}
	s.currentID = id
	return s, true
}

// AppendMessage adds msg to the end of the matching session and sets its
// LastUpdated to the message timestamp.
// Other sessions are untouched; an unknown session id is a no-op.
func (s State) AppendMessage(sessionID string, msg chat.Message) (State, bool) {
	i := s.index(sessionID)
	if i < 0 {
		return s, false
	}

	sessions := append([]chat.Session(nil), s.sessions...)
	target := sessions[i]
	messages := make([]chat.Message, 0, len(target.Messages)+1)
	messages = append(messages, target.Messages...)
	target.Messages = append(messages, msg)
	target.LastUpdated = msg.Timestamp
	sessions[i] = target

	s.sessions = sessions
	return s, true
}

// SetLanguage changes the active language. Existing sessions keep theirs.
func (s State) SetLanguage(lang chat.Language) State {
	s.language = lang
	return s
}

// SetTheme changes the colour scheme.
func (s State) SetTheme(theme Theme) State {
	s.theme = theme
	return s
}

// SetTyping toggles the typing indicator for one session.
func (s State) SetTyping(sessionID string, typing bool) State {
	next := make(map[string]bool, len(s.typing)+1)
	for id, v := range s.typing {
		next[id] = v
	}
	if typing {
		next[sessionID] = true
	} else {
		delete(next, sessionID)
	}
	s.typing = next
	return s
}

// Sessions returns copies of all sessions, most recent first.
func (s State) Sessions() []chat.Session {
	out := make([]chat.Session, len(s.sessions))
	for i, session := range s.sessions {
		out[i] = session.Clone()
	}
	return out
}

// Session looks a session up by id.
func (s State) Session(id string) (chat.Session, bool) {
	i := s.index(id)
	if i < 0 {
		return chat.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// Current returns the selected session.
func (s State) Current() (chat.Session, bool) {
	return s.Session(s.currentID)
}

func (s State) CurrentID() string { return s.currentID }

func (s State) Language() chat.Language { return s.language }

func (s State) Theme() Theme { return s.theme }

func (s State) Len() int { return len(s.sessions) }

// Typing reports whether a reply is pending for sessionID.
func (s State) Typing(sessionID string) bool { return s.typing[sessionID] }

// Filter returns sessions whose title or any message content contains query,
// ignoring case. An empty query returns every session. Order is preserved.
func (s State) Filter(query string) []chat.Session {
	return FilterSessions(s.Sessions(), query)
}

// FilterSessions applies the session search to an arbitrary list.
func FilterSessions(sessions []chat.Session, query string) []chat.Session {
	if query == "" {
		return sessions
	}
	needle := strings.ToLower(query)

	out := make([]chat.Session, 0, len(sessions))
	for _, session := range sessions {
		if matchesSession(session, needle) {
			out = append(out, session)
		}
	}
	return out
}

func matchesSession(session chat.Session, needle string) bool {
	if strings.Contains(strings.ToLower(session.Title), needle) {
		return true
	}
	for _, msg := range session.Messages {
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			return true
		}
	}
	return false
}

func (s State) index(id string) int {
	if id == "" {
		return -1
	}
	for i, session := range s.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}
