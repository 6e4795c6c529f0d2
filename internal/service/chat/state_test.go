package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

func TestStateTransitionsDoNotMutateReceiver(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := NewState(chat.English).CreateSession(chat.Session{ID: "a", Title: "A", LastUpdated: now})

	next, ok := base.AppendMessage("a", chat.Message{ID: "m1", Content: "hi", Timestamp: now.Add(time.Minute)})
	require.True(t, ok)

	before, _ := base.Session("a")
	after, _ := next.Session("a")
	assert.Empty(t, before.Messages)
	assert.Len(t, after.Messages, 1)
	assert.Equal(t, now, before.LastUpdated)
	assert.Equal(t, now.Add(time.Minute), after.LastUpdated)

	typing := next.SetTyping("a", true)
	assert.False(t, next.Typing("a"))
	assert.True(t, typing.Typing("a"))
	assert.False(t, typing.SetTyping("a", false).Typing("a"))
}

func TestStateSelectUnknownIsNoop(t *testing.T) {
	s := NewState(chat.English).
		CreateSession(chat.Session{ID: "a"}).
		CreateSession(chat.Session{ID: "b"})

	next, ok := s.SelectSession("zzz")
	assert.False(t, ok)
	assert.Equal(t, "b", next.CurrentID())

	next, ok = s.SelectSession("a")
	assert.True(t, ok)
	assert.Equal(t, "a", next.CurrentID())
	assert.Equal(t, "b", s.CurrentID())
}

func TestStateAppendUnknownIsNoop(t *testing.T) {
	s := NewState(chat.English).CreateSession(chat.Session{ID: "a"})

	next, ok := s.AppendMessage("b", chat.Message{Content: "x"})
	assert.False(t, ok)
	assert.Equal(t, s.Sessions(), next.Sessions())
}

func TestStateSessionsAreCopies(t *testing.T) {
	s := NewState(chat.English).CreateSession(chat.Session{ID: "a"})
	s, _ = s.AppendMessage("a", chat.Message{ID: "m1", Content: "original"})

	sessions := s.Sessions()
	sessions[0].Messages[0].Content = "changed"

	got, _ := s.Session("a")
	assert.Equal(t, "original", got.Messages[0].Content)
}

func TestStateSetLanguageAndTheme(t *testing.T) {
	s := NewState(chat.English)
	assert.Equal(t, ThemeLight, s.Theme())

	s = s.SetLanguage(chat.Bengali).SetTheme(ThemeDark)
	assert.Equal(t, chat.Bengali, s.Language())
	assert.Equal(t, ThemeDark, s.Theme())
}

func TestStateAppendAlwaysSetsLastUpdated(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewState(chat.English).CreateSession(chat.Session{ID: "a", LastUpdated: now})

	earlier := now.Add(-time.Hour)
	next, ok := s.AppendMessage("a", chat.Message{ID: "m1", Content: "late arrival", Timestamp: earlier})
	require.True(t, ok)

	got, _ := next.Session("a")
	assert.Equal(t, earlier, got.LastUpdated)
}

func TestFilterSessionsMatchesQueryVerbatim(t *testing.T) {
	sessions := []chat.Session{{
		ID:       "a",
		Title:    "Health Chat 1",
		Messages: []chat.Message{{Content: "How can I prevent dengue?"}},
	}}

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"health chat 1", 1},
		{"DENGUE", 1},
		{"Health Chat 1 ", 0},
		{"   ", 0},
		{" prevent", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Len(t, FilterSessions(sessions, tt.query), tt.want)
		})
	}
}
