// Package completion is the boundary to the remote completion endpoint. A
// Client takes one chat request and returns the raw response body; decoding
// is left to the streaming package because the wire shape varies by
// deployment.
package completion

import (
	"context"
	"io"
)

// Content part types understood by the completion endpoint.
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// ImageURL wraps an image reference, typically a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message content array.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// RequestMessage is one OpenAI-style chat message.
type RequestMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// Request is the completion request body. The endpoint expects the user
// object, project and chat identifiers alongside the messages.
type Request struct {
	Messages  []RequestMessage       `json:"messages"`
	User      map[string]interface{} `json:"user"`
	Stream    bool                   `json:"stream"`
	ProjectID string                 `json:"projectId"`
	ChatID    string                 `json:"chatId"`
	UserID    string                 `json:"userId"`
}

// Client dispatches a completion request and returns the streamable response
// body. Callers own the returned body and must close it.
type Client interface {
	Stream(ctx context.Context, req Request) (io.ReadCloser, error)
}
