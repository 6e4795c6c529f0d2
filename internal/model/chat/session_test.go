package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionCloneDoesNotAlias(t *testing.T) {
	original := Session{ID: "a", Messages: []Message{{ID: "m1", Content: "hi"}}}

	clone := original.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, Message{ID: "m2"})

	assert.Equal(t, "hi", original.Messages[0].Content)
	assert.Len(t, original.Messages, 1)
}
