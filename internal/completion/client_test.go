package completion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Stream(t *testing.T) {
	var received Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"response\":\"hi\"}\n\ndata: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	body, err := client.Stream(context.Background(), Request{
		Messages: []RequestMessage{{
			Role:    "user",
			Content: []ContentPart{{Type: PartTypeText, Text: "hello"}},
		}},
		ProjectID: "P1",
		ChatID:    "chat-1",
		UserID:    "user-1",
	})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DONE]")

	// The stream flag is forced on regardless of the caller.
	assert.True(t, received.Stream)
	assert.Equal(t, "chat-1", received.ChatID)
	assert.Equal(t, "P1", received.ProjectID)
	assert.Equal(t, "user-1", received.UserID)
}

func TestHTTPClient_NonSuccessStatusIsHardFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.Stream(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPClient_ConnectionRefused(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1")
	_, err := client.Stream(context.Background(), Request{})
	assert.Error(t, err)
}
