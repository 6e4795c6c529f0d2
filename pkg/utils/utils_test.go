package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad input"}`, rr.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	rr := httptest.NewRecorder()
	SetupSSEHeaders(rr)

	require.NoError(t, SendSSEEvent(rr, rr, "typing", map[string]bool{"typing": true}))
	require.NoError(t, SendSSEComment(rr, rr, "ping"))

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "event: typing\ndata: {\"typing\":true}\n\n: ping\n\n", rr.Body.String())
	assert.True(t, rr.Flushed)
}
