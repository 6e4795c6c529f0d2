package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// MessageType drives how the widget decorates a message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeAlert MessageType = "alert"
	TypeInfo  MessageType = "info"
)

// Message is a single turn in a session. It is never mutated after being appended.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
	Language  Language    `json:"language"`
}
