package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

func TestClock(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	assert.Equal(t, "02:05 PM", Clock(ts, chat.English, time.UTC))
	assert.Equal(t, "14:05", Clock(ts, chat.Hindi, time.UTC))

	ist := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, "19:35", Clock(ts, chat.Marathi, ist))
}

func TestSummaries(t *testing.T) {
	sessions := []chat.Session{
		{ID: "b", Title: "Health Chat 2", Language: chat.Hindi, Messages: make([]chat.Message, 3)},
		{ID: "a", Title: "Health Chat 1", Language: chat.English, Messages: make([]chat.Message, 1)},
	}

	rows := Summaries(sessions, "a")
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)
	assert.Equal(t, 3, rows[0].MessageCount)
	assert.Equal(t, "🇮🇳", rows[0].Flag)
	assert.False(t, rows[0].Current)
	assert.True(t, rows[1].Current)
}

func TestMessageRendering(t *testing.T) {
	bot := Message(chat.Message{
		Content:  "**Health Alert:**\n\n• Use repellent",
		Sender:   chat.SenderBot,
		Type:     chat.TypeAlert,
		Language: chat.English,
	}, time.UTC)
	assert.True(t, bot.Alert)
	assert.Equal(t, "left", bot.Align)
	assert.Contains(t, bot.HTML, "<strong>Health Alert:</strong>")

	user := Message(chat.Message{
		Content:  "<script>alert(1)</script>\nfever?",
		Sender:   chat.SenderUser,
		Type:     chat.TypeText,
		Language: chat.English,
	}, time.UTC)
	assert.False(t, user.Alert)
	assert.Equal(t, "right", user.Align)
	assert.NotContains(t, user.HTML, "<script>")
	assert.Contains(t, user.HTML, "<br>fever?")
}

func TestRenderHTMLDropsRawHTML(t *testing.T) {
	out := RenderHTML("hello <iframe src=x></iframe> **world**")
	assert.NotContains(t, out, "<iframe")
	assert.Contains(t, out, "<strong>world</strong>")
}
