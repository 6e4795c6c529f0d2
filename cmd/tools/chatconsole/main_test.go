package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
)

func newConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	store := chatService.NewService(cat, chat.English)
	dispatcher := dispatch.NewService(store, cat, dispatch.WithDelay(time.Hour))
	t.Cleanup(dispatcher.Close)

	_, err = store.EnsureSession(context.Background())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &console{out: out, store: store, dispatcher: dispatcher, catalog: cat}, out
}

func TestConsoleCommands(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	quit, err := c.handle(ctx, "/new hi")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Len(t, c.store.Sessions(ctx), 2)

	_, err = c.handle(ctx, "/select 2")
	require.NoError(t, err)
	assert.Equal(t, c.store.Sessions(ctx)[1].ID, c.store.Snapshot(ctx).CurrentSessionID)

	_, err = c.handle(ctx, "/lang mr")
	require.NoError(t, err)
	assert.Equal(t, chat.Marathi, c.store.Language(ctx))

	_, err = c.handle(ctx, "/lang xx")
	assert.ErrorIs(t, err, chat.ErrUnknownLanguage)

	_, err = c.handle(ctx, "/theme")
	require.NoError(t, err)
	assert.Equal(t, chatService.ThemeDark, c.store.Snapshot(ctx).Theme)

	out.Reset()
	_, err = c.handle(ctx, "/list")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "* 2. ")
	assert.Contains(t, out.String(), "Health Chat 1")

	_, err = c.handle(ctx, "/select 9")
	assert.Error(t, err)
	_, err = c.handle(ctx, "/bogus")
	assert.Error(t, err)

	quit, err = c.handle(ctx, "/quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestConsoleSendsText(t *testing.T) {
	c, _ := newConsole(t)
	ctx := context.Background()

	_, err := c.handle(ctx, "   ")
	require.NoError(t, err)

	_, err = c.handle(ctx, "what are the symptoms?")
	require.NoError(t, err)

	current, ok := c.store.Current(ctx)
	require.True(t, ok)
	assert.Len(t, current.Messages, 2)
	assert.Equal(t, 1, c.dispatcher.Pending(current.ID))
}

func TestConsoleRender(t *testing.T) {
	c, out := newConsole(t)
	var prompts []string
	c.setPrompt = func(p string) { prompts = append(prompts, p) }

	typing := true
	events := make(chan chatService.Event, 4)
	events <- chatService.Event{Type: chatService.EventTyping, Typing: &typing}
	events <- chatService.Event{Type: chatService.EventMessage, Message: &chat.Message{
		Content: "Stay indoors", Sender: chat.SenderBot, Type: chat.TypeAlert, Language: chat.English,
	}}
	events <- chatService.Event{Type: chatService.EventLanguage, Language: chat.Hindi}
	close(events)

	c.render(events)

	assert.Contains(t, out.String(), "bot is typing")
	assert.Contains(t, out.String(), "[ALERT] Stay indoors")
	assert.Equal(t, []string{prompt(chat.Hindi)}, prompts)
}
