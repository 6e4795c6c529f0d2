// Package view projects chat state into the shapes the widget renders.
package view

import (
	stdhtml "html"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// SessionSummary is one row of the session sidebar.
type SessionSummary struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	MessageCount int           `json:"messageCount"`
	Language     chat.Language `json:"language"`
	Flag         string        `json:"flag"`
	LastUpdated  time.Time     `json:"lastUpdated"`
	Current      bool          `json:"current"`
}

// MessageView is one bubble in the thread.
type MessageView struct {
	chat.Message
	Time  string `json:"time"`
	HTML  string `json:"html"`
	Alert bool   `json:"alert"`
	Align string `json:"align"`
}

// SessionView is a full thread.
type SessionView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Language    chat.Language `json:"language"`
	Flag        string        `json:"flag"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Messages    []MessageView `json:"messages"`
}

// Summaries builds sidebar rows, keeping the input order.
func Summaries(sessions []chat.Session, currentID string) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			ID:           s.ID,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			Language:     s.Language,
			Flag:         s.Language.Flag(),
			LastUpdated:  s.LastUpdated,
			Current:      s.ID == currentID,
		})
	}
	return out
}

// Session renders a whole thread in loc.
func Session(s chat.Session, loc *time.Location) SessionView {
	return SessionView{
		ID:          s.ID,
		Title:       s.Title,
		Language:    s.Language,
		Flag:        s.Language.Flag(),
		LastUpdated: s.LastUpdated,
		Messages:    Messages(s.Messages, loc),
	}
}

// Messages renders each message in order.
func Messages(msgs []chat.Message, loc *time.Location) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message(m, loc))
	}
	return out
}

// Message renders a single message.
func Message(m chat.Message, loc *time.Location) MessageView {
	align := "left"
	body := RenderHTML(m.Content)
	if m.Sender == chat.SenderUser {
		align = "right"
		body = escapeLines(m.Content)
	}
	return MessageView{
		Message: m,
		Time:    Clock(m.Timestamp, m.Language, loc),
		HTML:    body,
		Alert:   m.Type == chat.TypeAlert,
		Align:   align,
	}
}

// Clock formats t as hour:minute for lang. English uses a 12-hour clock.
func Clock(t time.Time, lang chat.Language, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	if lang == chat.English {
		return t.Format("03:04 PM")
	}
	return t.Format("15:04")
}

// RenderHTML converts catalog markdown to HTML. Raw HTML in the source is dropped.
func RenderHTML(content string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(content), p, renderer)))
}

func escapeLines(content string) string {
	return strings.ReplaceAll(stdhtml.EscapeString(content), "\n", "<br>")
}
