package chat

import "time"

// Session is one conversation thread with its own history and a language fixed at creation.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	Language    Language  `json:"language"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Clone returns a copy whose message slice does not alias the receiver's.
func (s Session) Clone() Session {
	s.Messages = append([]Message(nil), s.Messages...)
	return s
}
