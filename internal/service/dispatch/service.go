package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/arogya-chat/backend/internal/analysis/intent"
	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// DefaultReplyDelay is how long the bot "types" before answering.
const DefaultReplyDelay = 1500 * time.Millisecond

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrNoActiveSession = errors.New("no active session")
)

// Store is the subset of the session store the dispatcher writes through.
type Store interface {
	Current(ctx context.Context) (chat.Session, bool)
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	AppendMessage(ctx context.Context, sessionID string, message chat.Message) (chat.Message, error)
	SetTyping(ctx context.Context, sessionID string, typing bool)
	Language(ctx context.Context) chat.Language
}

// Reply is the canned answer chosen for a user message.
type Reply struct {
	Topic    catalog.Topic    `json:"topic"`
	Type     chat.MessageType `json:"type"`
	Content  string           `json:"content"`
	Language chat.Language    `json:"language"`
	FellBack bool             `json:"fellBack,omitempty"`
}

// Option customizes a Service.
type Option func(*Service)

// WithDelay overrides DefaultReplyDelay.
func WithDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// Service turns user text into canned replies delivered after a delay.
// Pending replies are tracked per session so they can be cancelled.
type Service struct {
	store   Store
	catalog catalog.Store
	delay   time.Duration

	mu       sync.Mutex
	pending  map[string]map[uint64]*time.Timer
	nextTask uint64
	closed   bool
	wg       sync.WaitGroup
}

// NewService wires the dispatcher to a session store and catalog.
func NewService(store Store, cat catalog.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		delay:   DefaultReplyDelay,
		pending: make(map[string]map[uint64]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the configured reply delay.
func (s *Service) Delay() time.Duration {
	return s.delay
}

// Dispatch picks the reply for text in lang. It has no side effects.
func (s *Service) Dispatch(text string, lang chat.Language) Reply {
	decision := intent.Classify(intent.Rules(s.catalog, lang), text)
	resolved := s.catalog.Resolve(lang, decision.Topic)
	return Reply{
		Topic:    decision.Topic,
		Type:     decision.Type,
		Content:  resolved.Text,
		Language: lang,
		FellBack: resolved.FellBack,
	}
}

// Send appends the user's text to sessionID (or the current session when empty)
// and schedules the bot reply. The reply uses the active language at send time
// and always targets the session captured here.
func (s *Service) Send(ctx context.Context, sessionID, text string) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	lang := s.store.Language(ctx)
	userMsg, err := s.store.AppendMessage(ctx, session.ID, chat.Message{
		Content:  text,
		Sender:   chat.SenderUser,
		Type:     chat.TypeText,
		Language: lang,
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("append user message: %w", err)
	}

	s.schedule(session.ID, text, lang)
	return userMsg, nil
}

func (s *Service) resolveSession(ctx context.Context, sessionID string) (chat.Session, error) {
	if sessionID == "" {
		session, ok := s.store.Current(ctx)
		if !ok {
			return chat.Session{}, ErrNoActiveSession
		}
		return session, nil
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, fmt.Errorf("resolve session %s: %w", sessionID, err)
	}
	return session, nil
}

func (s *Service) schedule(sessionID, text string, lang chat.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	task := s.nextTask
	s.nextTask++

	tasks, ok := s.pending[sessionID]
	if !ok {
		tasks = make(map[uint64]*time.Timer)
		s.pending[sessionID] = tasks
	}

	s.store.SetTyping(context.Background(), sessionID, true)
	s.wg.Add(1)
	tasks[task] = time.AfterFunc(s.delay, func() {
		s.deliver(sessionID, task, text, lang)
	})
}

func (s *Service) deliver(sessionID string, task uint64, text string, lang chat.Language) {
	defer s.wg.Done()

	s.mu.Lock()
	tasks := s.pending[sessionID]
	if _, ok := tasks[task]; !ok {
		// Cancelled after the timer had already fired.
		s.mu.Unlock()
		return
	}
	delete(tasks, task)
	s.mu.Unlock()

	ctx := context.Background()
	reply := s.Dispatch(text, lang)
	_, err := s.store.AppendMessage(ctx, sessionID, chat.Message{
		Content:  reply.Content,
		Sender:   chat.SenderBot,
		Type:     reply.Type,
		Language: reply.Language,
	})
	if err != nil {
		logging.Component("dispatch").Warn().
			Str("session", sessionID).
			Err(err).
			Msg("dropping reply for unavailable session")
	} else {
		logging.Component("dispatch").Debug().
			Str("session", sessionID).
			Str("topic", string(reply.Topic)).
			Bool("fallback", reply.FellBack).
			Msg("reply delivered")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending[sessionID]) == 0 {
		delete(s.pending, sessionID)
		s.store.SetTyping(ctx, sessionID, false)
	}
}

// Pending reports how many replies are still scheduled for sessionID.
func (s *Service) Pending(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[sessionID])
}

// Cancel drops every scheduled reply for sessionID and clears its typing indicator.
// It returns the number of replies that were stopped before firing.
func (s *Service) Cancel(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(sessionID)
}

func (s *Service) cancelLocked(sessionID string) int {
	tasks, ok := s.pending[sessionID]
	if !ok {
		return 0
	}

	stopped := 0
	for task, timer := range tasks {
		delete(tasks, task)
		if timer.Stop() {
			s.wg.Done()
			stopped++
		}
	}
	delete(s.pending, sessionID)
	s.store.SetTyping(context.Background(), sessionID, false)
	return stopped
}

// Close cancels all pending replies and waits for in-flight deliveries to finish.
// Sends after Close are stored without a reply.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for sessionID := range s.pending {
		s.cancelLocked(sessionID)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Shutdown is Close bounded by ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
